package service

import "github.com/yndnr/vedis-go/internal/core/domain"

// COMMAND [...]
//
// Clients such as redis-cli send COMMAND DOCS on connect; an empty array
// keeps them happy.
func (d *Dispatcher) handleCommand(_ []domain.Arg) (Outcome, error) {
	return reply(domain.Array())
}

// GET <key>
func (d *Dispatcher) handleGet(args []domain.Arg) (Outcome, error) {
	if len(args) < 1 {
		return Outcome{}, domain.ArityError("GET", "a key argument")
	}
	key := args[0]
	if key.IsNull() {
		return Outcome{}, domain.ErrNilKey
	}

	value, found := d.store.Get(key.Value)
	return reply(domain.OptionalBulk(value, found))
}

// SET <key> <value> [GET]
//
// With the GET flag the reply is the value that this write replaced.
func (d *Dispatcher) handleSet(args []domain.Arg) (Outcome, error) {
	if len(args) < 2 {
		return Outcome{}, domain.ArityError("SET", "a key, value argument")
	}
	key, value := args[0], args[1]
	if key.IsNull() {
		return Outcome{}, domain.ErrNilKey
	}
	if value.IsNull() {
		return Outcome{}, domain.ErrNilValue
	}

	replyOld := len(args) > 2 && !args[2].IsNull() && args[2].Value == "GET"

	old, existed := d.store.Put(key.Value, value.Value)
	if replyOld {
		return reply(domain.OptionalBulk(old, existed))
	}
	return reply(domain.Simple("OK"))
}

// DEL <key> [key ...]
//
// Null keys and absent keys are skipped; the reply counts removed keys.
func (d *Dispatcher) handleDel(args []domain.Arg) (Outcome, error) {
	if len(args) < 1 {
		return Outcome{}, domain.ArityError("DEL", "at least one key argument")
	}

	var removed int64
	for _, key := range args {
		if key.IsNull() {
			continue
		}
		if _, existed := d.store.Remove(key.Value); existed {
			removed++
		}
	}
	return reply(domain.Integer(removed))
}

// EXISTS <key> [key ...]
//
// A key named twice is counted twice, as in Redis.
func (d *Dispatcher) handleExists(args []domain.Arg) (Outcome, error) {
	if len(args) < 1 {
		return Outcome{}, domain.ArityError("EXISTS", "at least one key argument")
	}

	var count int64
	for _, key := range args {
		if key.IsNull() {
			continue
		}
		if d.store.Exists(key.Value) {
			count++
		}
	}
	return reply(domain.Integer(count))
}

// DBSIZE
func (d *Dispatcher) handleDBSize(_ []domain.Arg) (Outcome, error) {
	return reply(domain.Integer(int64(d.store.Len())))
}

// PING [message]
func (d *Dispatcher) handlePing(args []domain.Arg) (Outcome, error) {
	if len(args) == 0 {
		return reply(domain.Simple("PONG"))
	}
	return reply(domain.OptionalBulk(args[0].Value, !args[0].IsNull()))
}

// QUIT closes the connection after replying.
func (d *Dispatcher) handleQuit(_ []domain.Arg) (Outcome, error) {
	return Outcome{Reply: domain.Simple("OK"), Close: true}, nil
}

// SHUTDOWN [...]
//
// The reply goes out first; the session then closes the connection and
// only after that is the trigger fired.
func (d *Dispatcher) handleShutdown(_ []domain.Arg) (Outcome, error) {
	return Outcome{
		Reply:      domain.Simple("OK"),
		Close:      true,
		AfterReply: d.fireShutdown,
	}, nil
}

func (d *Dispatcher) fireShutdown() {
	if d.trigger == nil {
		d.logger.Warn("SHUTDOWN received but no shutdown trigger is configured")
		return
	}
	if d.trigger.Fire() {
		d.logger.Info("received a SHUTDOWN command, shutting down")
	}
}
