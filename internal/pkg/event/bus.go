/*
 * @Description: 一个带固定Worker池的异步事件总线
 * @Author: 安知鱼
 * @Date: 2025-07-10 19:06:12
 * @LastEditTime: 2026-10-19 12:10:54
 * @LastEditors: 安知鱼
 */
package event

import (
	"log"
	"sync"
)

// 定义事件类型
type Topic string

const (
	// 内容过滤事件
	FilterProcessed Topic = "filter:processed"
	FilterSkipped   Topic = "filter:skipped"
)

// 事件处理器函数类型
type Handler func(payload interface{})

// Event 是在通道中传递的事件结构
type Event struct {
	Topic   Topic
	Payload interface{}
}

// EventBus 实现了基于Worker池的异步事件总线
type EventBus struct {
	mu        sync.RWMutex
	handlers  map[Topic][]Handler
	eventChan chan Event
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    bool
}

// 定义Worker池和通道的配置
const (
	DefaultWorkerCount = 4
	DefaultChannelSize = 1024
)

// NewEventBus 创建并启动一个新的事件总线
func NewEventBus() *EventBus {
	return NewEventBusWithSize(DefaultWorkerCount, DefaultChannelSize)
}

// NewEventBusWithSize 按指定的 worker 数量与通道容量创建事件总线
func NewEventBusWithSize(workers, size int) *EventBus {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	if size <= 0 {
		size = DefaultChannelSize
	}
	bus := &EventBus{
		handlers:  make(map[Topic][]Handler),
		eventChan: make(chan Event, size),
	}
	for i := 0; i < workers; i++ {
		bus.wg.Add(1)
		go bus.worker(i + 1)
	}
	return bus
}

// worker 不断从通道中读取并处理事件
func (b *EventBus) worker(workerID int) {
	defer b.wg.Done()

	for event := range b.eventChan {
		b.mu.RLock()
		handlers := b.handlers[event.Topic]
		b.mu.RUnlock()
		for _, handler := range handlers {
			b.dispatch(event, handler)
		}
	}
	log.Printf("[EventBus] Worker %d stopped", workerID)
}

// dispatch 执行单个 handler，handler 的 panic 不会让 worker 退出
func (b *EventBus) dispatch(event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EventBus] ERROR: handler for topic '%s' panicked: %v", event.Topic, r)
		}
	}()
	handler(event.Payload)
}

// Subscribe 订阅一个事件
func (b *EventBus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish 发布一个事件，非阻塞；通道已满或总线已关闭时丢弃事件
func (b *EventBus) Publish(topic Topic, payload interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.eventChan <- Event{Topic: topic, Payload: payload}:
	default:
		log.Printf("[EventBus] WARN: Event channel is full. Dropping event for topic '%s'.", topic)
	}
}

// Shutdown 优雅地关闭事件总线，等待已入队的事件处理完毕
func (b *EventBus) Shutdown() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.eventChan)
		b.mu.Unlock()
		b.wg.Wait()
		log.Println("[EventBus] All workers have stopped.")
	})
}
