package core

import (
	"errors"
	"sync"

	"blinky/protocol"
)

// CommandHandler handles one command; it decodes its own arguments from data
type CommandHandler func(data *[]byte) error

// Command is a registered catalog entry
type Command struct {
	ID      uint16
	Name    string
	Format  string
	Handler CommandHandler // nil for responses
}

// CommandRegistry maps message ids to handlers and frames responses
type CommandRegistry struct {
	mu        sync.RWMutex
	commands  map[uint16]*Command
	nameToID  map[string]uint16
	nextID    uint16
	transport *protocol.Transport
}

var globalRegistry = NewCommandRegistry()

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint16]*Command),
		nameToID: make(map[string]uint16),
	}
}

// GetGlobalRegistry returns the registry used by firmware targets
func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}

// Register adds a command and returns its id. Registering a name twice
// returns the existing id.
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := r.nextID
	r.nextID++
	r.commands[id] = &Command{ID: id, Name: name, Format: format, Handler: handler}
	r.nameToID[name] = id
	return id
}

// RegisterCatalog registers every protocol catalog entry in id order so the
// registry ids match the ids the host uses. handlers supplies the command
// handlers by name; responses get none.
func (r *CommandRegistry) RegisterCatalog(handlers map[string]CommandHandler) error {
	if r.Count() != 0 {
		return errors.New("catalog must be registered first")
	}
	for i, def := range protocol.Catalog {
		h := handlers[def.Name]
		if !def.Response && h == nil {
			return errors.New("no handler for " + def.Name)
		}
		if id := r.Register(def.Name, def.Format, h); id != uint16(i) {
			return errors.New("catalog id mismatch for " + def.Name)
		}
	}
	return nil
}

// GetCommand retrieves a command by id
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// GetCommandByName retrieves a command by name
func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Count returns the number of registered entries
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered for cmdID
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok {
		return errors.New("unknown command ID: " + utoa(uint32(cmdID)))
	}
	if cmd.Handler == nil {
		return errors.New("not a command: " + cmd.Name)
	}
	return cmd.Handler(data)
}

// SetTransport sets the transport responses are framed on
func (r *CommandRegistry) SetTransport(t *protocol.Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transport = t
}

// SendResponse frames response name with the arguments written by args.
// It does nothing until a transport is set.
func (r *CommandRegistry) SendResponse(name string, args func(output protocol.OutputBuffer)) {
	r.mu.RLock()
	t := r.transport
	id, ok := r.nameToID[name]
	r.mu.RUnlock()

	if t == nil {
		return
	}
	if !ok {
		// every response is registered with the catalog
		panic("Response not registered: " + name)
	}
	t.SendCommand(id, args)
}

// DispatchCommand dispatches on the global registry
func DispatchCommand(cmdID uint16, data *[]byte) error {
	return globalRegistry.Dispatch(cmdID, data)
}

// SendResponse frames a response on the global registry's transport
func SendResponse(name string, args func(output protocol.OutputBuffer)) {
	globalRegistry.SendResponse(name, args)
}

// SetGlobalTransport sets the transport used by the global registry
func SetGlobalTransport(t *protocol.Transport) {
	globalRegistry.SetTransport(t)
}
