package service

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/vedis-go/internal/core/domain"
	"github.com/yndnr/vedis-go/internal/storage/memory"
)

// ============================================================
// Test helpers
// ============================================================

type countingTrigger struct {
	fired atomic.Int32
	calls atomic.Int32
}

func (c *countingTrigger) Fire() bool {
	c.calls.Add(1)
	return c.fired.CompareAndSwap(0, 1)
}

type observation struct {
	command string
	result  string
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (r *recordingObserver) ObserveCommand(command, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, observation{command, result})
}

// panicStore panics on every call.
type panicStore struct{}

func (panicStore) Get(string) (string, bool)         { panic("get exploded") }
func (panicStore) Put(string, string) (string, bool) { panic("put exploded") }
func (panicStore) Remove(string) (string, bool)      { panic("remove exploded") }
func (panicStore) Exists(string) bool                { panic("exists exploded") }
func (panicStore) Len() int                          { panic("len exploded") }

func newTestDispatcher() (*Dispatcher, *memory.Store) {
	store := memory.New()
	return NewDispatcher(store), store
}

func dispatch(t *testing.T, d *Dispatcher, req domain.Request) domain.Reply {
	t.Helper()
	out, err := d.Dispatch(req)
	if err != nil {
		t.Fatalf("Dispatch(%v) error: %v", req, err)
	}
	return out.Reply
}

func do(t *testing.T, d *Dispatcher, args ...string) domain.Reply {
	t.Helper()
	return dispatch(t, d, domain.NewRequest(args...))
}

func assertReply(t *testing.T, got, want domain.Reply) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reply = %#v, want %#v", got, want)
	}
}

// ============================================================
// Test: validation and routing
// ============================================================

func TestDispatch_Validation(t *testing.T) {
	d, _ := newTestDispatcher()
	str, null := domain.String, domain.Null

	tests := []struct {
		name string
		req  domain.Request
		want domain.Reply
	}{
		{
			name: "empty request",
			req:  domain.Request{},
			want: domain.ErrorReply("ERR Client request must be an array of bulk strings"),
		},
		{
			name: "null command name",
			req:  domain.Request{Args: []domain.Arg{null()}},
			want: domain.ErrorReply("ERR Client request must be an array of bulk strings"),
		},
		{
			name: "unknown command",
			req:  domain.NewRequest("FLUSHALL"),
			want: domain.ErrorReply("ERR Unsupported command"),
		},
		{
			name: "lowercase command is not recognized",
			req:  domain.NewRequest("get", "k"),
			want: domain.ErrorReply("ERR Unsupported command"),
		},
		{
			name: "GET without key",
			req:  domain.NewRequest("GET"),
			want: domain.ErrorReply("ERR GET command requires a key argument"),
		},
		{
			name: "GET with null key",
			req:  domain.Request{Args: []domain.Arg{str("GET"), null()}},
			want: domain.ErrorReply("ERR A nil key is not allowed"),
		},
		{
			name: "SET with key only",
			req:  domain.NewRequest("SET", "k"),
			want: domain.ErrorReply("ERR SET command requires a key, value argument"),
		},
		{
			name: "SET with null key",
			req:  domain.Request{Args: []domain.Arg{str("SET"), null(), str("v")}},
			want: domain.ErrorReply("ERR A nil key is not allowed"),
		},
		{
			name: "SET with null key and null value reports the key",
			req:  domain.Request{Args: []domain.Arg{str("SET"), null(), null()}},
			want: domain.ErrorReply("ERR A nil key is not allowed"),
		},
		{
			name: "SET with null value",
			req:  domain.Request{Args: []domain.Arg{str("SET"), str("k"), null()}},
			want: domain.ErrorReply("ERR A nil value is not allowed"),
		},
		{
			name: "DEL without keys",
			req:  domain.NewRequest("DEL"),
			want: domain.ErrorReply("ERR DEL command requires at least one key argument"),
		},
		{
			name: "EXISTS without keys",
			req:  domain.NewRequest("EXISTS"),
			want: domain.ErrorReply("ERR EXISTS command requires at least one key argument"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertReply(t, dispatch(t, d, tt.req), tt.want)
		})
	}
}

func TestDispatch_CommandStub(t *testing.T) {
	d, _ := newTestDispatcher()
	assertReply(t, do(t, d, "COMMAND"), domain.Array())
	assertReply(t, do(t, d, "COMMAND", "DOCS"), domain.Array())
}

func TestDispatcher_Commands(t *testing.T) {
	d, _ := newTestDispatcher()
	want := []string{"COMMAND", "DBSIZE", "DEL", "EXISTS", "GET", "PING", "QUIT", "SET", "SHUTDOWN"}
	if got := d.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("Commands() = %v, want %v", got, want)
	}
}

// ============================================================
// Test: GET / SET / DEL semantics
// ============================================================

func TestSetThenGet(t *testing.T) {
	d, _ := newTestDispatcher()

	assertReply(t, do(t, d, "GET", "k"), domain.NullBulk())
	assertReply(t, do(t, d, "SET", "k", "v"), domain.Simple("OK"))
	assertReply(t, do(t, d, "GET", "k"), domain.Bulk("v"))
}

func TestGet_ExtraArgumentsIgnored(t *testing.T) {
	d, _ := newTestDispatcher()
	do(t, d, "SET", "k", "v")
	assertReply(t, do(t, d, "GET", "k", "ignored"), domain.Bulk("v"))
}

func TestSet_GetFlag(t *testing.T) {
	d, _ := newTestDispatcher()

	// No previous value.
	assertReply(t, do(t, d, "SET", "k", "v1", "GET"), domain.NullBulk())
	// Previous value is returned; new value is stored.
	assertReply(t, do(t, d, "SET", "k", "v2", "GET"), domain.Bulk("v1"))
	assertReply(t, do(t, d, "GET", "k"), domain.Bulk("v2"))
}

func TestSet_FlagIsCaseSensitive(t *testing.T) {
	d, _ := newTestDispatcher()
	do(t, d, "SET", "k", "v1")

	assertReply(t, do(t, d, "SET", "k", "v2", "get"), domain.Simple("OK"))
	assertReply(t, do(t, d, "SET", "k", "v3", "NX"), domain.Simple("OK"))
	assertReply(t, do(t, d, "GET", "k"), domain.Bulk("v3"))
}

func TestSet_NullFlagIgnored(t *testing.T) {
	d, _ := newTestDispatcher()
	req := domain.Request{Args: []domain.Arg{
		domain.String("SET"), domain.String("k"), domain.String("v"), domain.Null(),
	}}
	assertReply(t, dispatch(t, d, req), domain.Simple("OK"))
}

func TestDel(t *testing.T) {
	d, _ := newTestDispatcher()

	assertReply(t, do(t, d, "DEL", "k"), domain.Integer(0))

	do(t, d, "SET", "k", "v")
	assertReply(t, do(t, d, "DEL", "k"), domain.Integer(1))
	assertReply(t, do(t, d, "GET", "k"), domain.NullBulk())
}

func TestDel_CountsOnlyRemovedKeys(t *testing.T) {
	orders := [][]string{
		{"k1", "k2", "k3"},
		{"k3", "k1", "k2"},
		{"k2", "k3", "k1"},
	}

	for _, keys := range orders {
		t.Run(fmt.Sprint(keys), func(t *testing.T) {
			d, _ := newTestDispatcher()
			do(t, d, "SET", "k1", "a")
			do(t, d, "SET", "k2", "b")

			args := append([]string{"DEL"}, keys...)
			assertReply(t, do(t, d, args...), domain.Integer(2))
		})
	}
}

func TestDel_SkipsNullAndDuplicateKeys(t *testing.T) {
	d, store := newTestDispatcher()
	store.Put("k", "v")

	req := domain.Request{Args: []domain.Arg{
		domain.String("DEL"), domain.Null(), domain.String("k"), domain.String("k"),
	}}
	assertReply(t, dispatch(t, d, req), domain.Integer(1))

	req = domain.Request{Args: []domain.Arg{domain.String("DEL"), domain.Null()}}
	assertReply(t, dispatch(t, d, req), domain.Integer(0))
}

// ============================================================
// Test: supplementary commands
// ============================================================

func TestExistsAndDBSize(t *testing.T) {
	d, _ := newTestDispatcher()
	do(t, d, "SET", "a", "1")
	do(t, d, "SET", "b", "2")

	assertReply(t, do(t, d, "EXISTS", "a", "b", "c", "a"), domain.Integer(3))
	assertReply(t, do(t, d, "DBSIZE"), domain.Integer(2))
}

func TestPing(t *testing.T) {
	d, _ := newTestDispatcher()
	assertReply(t, do(t, d, "PING"), domain.Simple("PONG"))
	assertReply(t, do(t, d, "PING", "hello"), domain.Bulk("hello"))
}

func TestQuit(t *testing.T) {
	d, _ := newTestDispatcher()
	out, err := d.Dispatch(domain.NewRequest("QUIT"))
	if err != nil {
		t.Fatalf("Dispatch(QUIT) error: %v", err)
	}
	assertReply(t, out.Reply, domain.Simple("OK"))
	if !out.Close {
		t.Error("QUIT should close the connection")
	}
	if out.AfterReply != nil {
		t.Error("QUIT should not schedule an after-reply action")
	}
}

// ============================================================
// Test: SHUTDOWN
// ============================================================

func TestShutdown_DefersFire(t *testing.T) {
	trigger := &countingTrigger{}
	d := NewDispatcher(memory.New(), WithTrigger(trigger))

	out, err := d.Dispatch(domain.NewRequest("SHUTDOWN"))
	if err != nil {
		t.Fatalf("Dispatch(SHUTDOWN) error: %v", err)
	}
	assertReply(t, out.Reply, domain.Simple("OK"))
	if !out.Close {
		t.Error("SHUTDOWN should close the connection")
	}
	if trigger.calls.Load() != 0 {
		t.Fatal("trigger fired before the reply was flushed")
	}
	if out.AfterReply == nil {
		t.Fatal("SHUTDOWN must schedule the trigger after the reply")
	}

	out.AfterReply()
	if trigger.fired.Load() != 1 {
		t.Error("trigger not fired by AfterReply")
	}
}

func TestShutdown_ConcurrentFiresOnce(t *testing.T) {
	trigger := &countingTrigger{}
	d := NewDispatcher(memory.New(), WithTrigger(trigger))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := d.Dispatch(domain.NewRequest("SHUTDOWN"))
			if err != nil {
				t.Errorf("Dispatch(SHUTDOWN) error: %v", err)
				return
			}
			out.AfterReply()
		}()
	}
	wg.Wait()

	if trigger.calls.Load() != 10 {
		t.Errorf("Fire called %d times, want 10", trigger.calls.Load())
	}
	if trigger.fired.Load() != 1 {
		t.Errorf("trigger fired %d times, want 1", trigger.fired.Load())
	}
}

func TestShutdown_WithoutTrigger(t *testing.T) {
	d, _ := newTestDispatcher()
	out, err := d.Dispatch(domain.NewRequest("SHUTDOWN"))
	if err != nil {
		t.Fatalf("Dispatch(SHUTDOWN) error: %v", err)
	}
	// Must not panic.
	out.AfterReply()
}

// ============================================================
// Test: internal faults and observation
// ============================================================

func TestDispatch_PanicBecomesInternalError(t *testing.T) {
	d := NewDispatcher(panicStore{})

	out, err := d.Dispatch(domain.NewRequest("GET", "k"))
	if err == nil {
		t.Fatal("expected internal error, got nil")
	}
	if !errors.Is(err, domain.ErrInternal) {
		t.Errorf("error = %v, want ErrInternal", err)
	}
	if out.Reply.Kind != 0 {
		t.Errorf("outcome should be empty on internal error, got %+v", out)
	}

	// Dispatcher keeps working for requests that do not touch the store.
	assertReply(t, do(t, d, "PING"), domain.Simple("PONG"))
}

func TestDispatch_Observer(t *testing.T) {
	obs := &recordingObserver{}
	d := NewDispatcher(memory.New(), WithObserver(obs))

	do(t, d, "SET", "k", "v")
	do(t, d, "GET")
	do(t, d, "NOPE")

	want := []observation{
		{"SET", ResultOK},
		{"GET", ResultError},
		{"unknown", ResultError},
	}
	if !reflect.DeepEqual(obs.seen, want) {
		t.Errorf("observations = %v, want %v", obs.seen, want)
	}

	d = NewDispatcher(panicStore{}, WithObserver(obs))
	obs.seen = nil
	_, _ = d.Dispatch(domain.NewRequest("DBSIZE"))
	if len(obs.seen) != 1 || obs.seen[0].result != ResultInternal {
		t.Errorf("observations = %v, want one internal result", obs.seen)
	}
}

func TestConcurrentSetsSameKey(t *testing.T) {
	d, _ := newTestDispatcher()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := "a"
			if i%2 == 1 {
				v = "b"
			}
			out, err := d.Dispatch(domain.NewRequest("SET", "k", v))
			if err != nil || out.Reply.Kind != domain.KindSimple {
				t.Errorf("SET reply = %v, err = %v", out.Reply, err)
			}
		}(i)
	}
	wg.Wait()

	r := do(t, d, "GET", "k")
	if r.Str != "a" && r.Str != "b" {
		t.Errorf("GET k = %v, want a or b", r)
	}
}
