package interaction

type commandKind uint8

const (
	commandRegister commandKind = iota
	commandUnregister
)

type command struct {
	kind   commandKind
	driver Driver
}

// Commands buffers scheduler edits issued while drivers are running. They are
// applied in issue order after every driver has been updated for the tick,
// followed by the deferred functions.
type Commands struct {
	ops    []command
	defers []func()
}

func newCommands() *Commands {
	return &Commands{}
}

// Register queues a driver registration.
func (c *Commands) Register(driver Driver) {
	c.ops = append(c.ops, command{kind: commandRegister, driver: driver})
}

// Unregister queues a driver removal.
func (c *Commands) Unregister(driver Driver) {
	c.ops = append(c.ops, command{kind: commandUnregister, driver: driver})
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Flush applies all queued operations to s, reseting the buffer state.
func (c *Commands) Flush(s *Scheduler) {
	for _, op := range c.ops {
		switch op.kind {
		case commandRegister:
			s.Register(op.driver)
		case commandUnregister:
			s.Unregister(op.driver)
		}
	}
	for _, fn := range c.defers {
		fn()
	}

	clear(c.ops)
	c.ops = c.ops[:0]
	c.defers = c.defers[:0]
}
