package scheduler

import (
	"container/heap"

	"github.com/aegisops/aegisd/services/orchestrator"
)

// queuedTask is one admitted unit of work. seq breaks priority ties in
// FIFO (admission) order.
type queuedTask struct {
	task orchestrator.Task
	seq  uint64
}

// taskHeap is a min-heap ordered by (priority, seq): lower Priority value
// pops first, and within a tier, lower seq (earlier admission) pops first.
type taskHeap []queuedTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].task.Priority != h[j].task.Priority {
		return h[i].task.Priority < h[j].task.Priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(queuedTask))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// priorityQueue wraps taskHeap behind the container/heap interface so
// callers never touch heap.Interface directly.
type priorityQueue struct {
	h      taskHeap
	nextSeq uint64
}

func newPriorityQueue() *priorityQueue {
	pq := &priorityQueue{}
	heap.Init(&pq.h)
	return pq
}

func (pq *priorityQueue) push(task orchestrator.Task) {
	heap.Push(&pq.h, queuedTask{task: task, seq: pq.nextSeq})
	pq.nextSeq++
}

func (pq *priorityQueue) pop() (orchestrator.Task, bool) {
	if pq.h.Len() == 0 {
		return orchestrator.Task{}, false
	}
	item := heap.Pop(&pq.h).(queuedTask)
	return item.task, true
}

func (pq *priorityQueue) len() int { return pq.h.Len() }
