package mqtt

import "sync"

// queuedCommand is one pending publish: the target device and the encoded
// command payload.
type queuedCommand struct {
	serial  string
	payload string
}

// commandQueue is a bounded FIFO of commands awaiting a connection.
//
// On overflow the oldest entry is dropped, never the newest: commands are
// absolute state-setters, so the latest intent always wins over stale ones.
type commandQueue struct {
	mu    sync.Mutex
	max   int
	items []queuedCommand
}

func newCommandQueue(max int) *commandQueue {
	return &commandQueue{max: max}
}

// Push appends a command, dropping the oldest entry if the queue is full.
// Returns the dropped command and whether a drop occurred, for logging.
func (q *commandQueue) Push(cmd queuedCommand) (queuedCommand, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var dropped queuedCommand
	var didDrop bool
	if len(q.items) >= q.max {
		dropped = q.items[0]
		q.items = q.items[1:]
		didDrop = true
	}
	q.items = append(q.items, cmd)
	return dropped, didDrop
}

// Requeue puts commands back at the front, preserving order. Used when a
// flush fails partway so the unflushed remainder retries first next time.
func (q *commandQueue) Requeue(cmds []queuedCommand) {
	if len(cmds) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(append([]queuedCommand{}, cmds...), q.items...)
	if len(q.items) > q.max {
		q.items = q.items[len(q.items)-q.max:]
	}
}

// Drain removes and returns every pending command in FIFO order.
func (q *commandQueue) Drain() []queuedCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Len returns the number of pending commands.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
