package tlsroots

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events a certificate rotation
// produces (cert and key usually change within milliseconds).
const DefaultDebounce = 200 * time.Millisecond

// KeyPair holds a certificate loaded from disk and reloads it when the
// cert or key file changes. A failed reload keeps the previous
// certificate.
type KeyPair struct {
	certFile string
	keyFile  string
	debounce time.Duration
	logger   *slog.Logger
	onReload func(error)

	mu   sync.RWMutex
	cert *tls.Certificate

	watcher  *fsnotify.Watcher
	timer    *time.Timer
	timerMu  sync.Mutex
	done     chan struct{}
	stopOnce sync.Once
}

// KeyPairOption configures a KeyPair.
type KeyPairOption func(*KeyPair)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) KeyPairOption {
	return func(kp *KeyPair) {
		kp.logger = logger
	}
}

// WithDebounce sets how long to wait after the last change before reloading.
func WithDebounce(d time.Duration) KeyPairOption {
	return func(kp *KeyPair) {
		kp.debounce = d
	}
}

// WithReloadHook is called after every reload attempt with its result.
func WithReloadHook(fn func(error)) KeyPairOption {
	return func(kp *KeyPair) {
		kp.onReload = fn
	}
}

// LoadKeyPair loads certFile and keyFile. Call Watch to follow changes.
func LoadKeyPair(certFile, keyFile string, opts ...KeyPairOption) (*KeyPair, error) {
	if certFile == "" || keyFile == "" {
		return nil, ErrIncompleteKeyPair
	}

	kp := &KeyPair{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(kp)
	}

	if err := kp.reload(); err != nil {
		return nil, err
	}
	return kp, nil
}

// GetCertificate returns the current certificate.
// It has the signature of tls.Config.GetCertificate.
func (kp *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	kp.mu.RLock()
	defer kp.mu.RUnlock()
	return kp.cert, nil
}

// Watch starts following the cert and key files in the background. The
// parent directories are watched so rename-and-replace rotations are seen.
func (kp *KeyPair) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}

	dirs := map[string]struct{}{
		filepath.Dir(kp.certFile): {},
		filepath.Dir(kp.keyFile):  {},
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}
	kp.watcher = w

	kp.logger.Info("certificate watcher started",
		"cert_file", kp.certFile,
		"key_file", kp.keyFile,
	)
	go kp.loop()
	return nil
}

func (kp *KeyPair) loop() {
	certBase := filepath.Base(kp.certFile)
	keyBase := filepath.Base(kp.keyFile)

	for {
		select {
		case event, ok := <-kp.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if name != certBase && name != keyBase {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			kp.logger.Debug("certificate file changed",
				"file", event.Name,
				"op", event.Op.String(),
			)
			kp.scheduleReload()

		case err, ok := <-kp.watcher.Errors:
			if !ok {
				return
			}
			kp.logger.Error("certificate watcher error", "error", err)

		case <-kp.done:
			return
		}
	}
}

func (kp *KeyPair) scheduleReload() {
	kp.timerMu.Lock()
	defer kp.timerMu.Unlock()

	if kp.timer != nil {
		kp.timer.Stop()
	}
	kp.timer = time.AfterFunc(kp.debounce, func() {
		select {
		case <-kp.done:
			return
		default:
		}
		err := kp.reload()
		if err != nil {
			kp.logger.Error("certificate reload failed",
				"error", err,
				"cert_file", kp.certFile,
			)
		}
		if kp.onReload != nil {
			kp.onReload(err)
		}
	})
}

// Stop stops watching. It is safe to call more than once, and on a
// KeyPair that was never watched.
func (kp *KeyPair) Stop() error {
	var err error
	kp.stopOnce.Do(func() {
		close(kp.done)

		kp.timerMu.Lock()
		if kp.timer != nil {
			kp.timer.Stop()
		}
		kp.timerMu.Unlock()

		if kp.watcher != nil {
			err = kp.watcher.Close()
		}
	})
	return err
}

func (kp *KeyPair) reload() error {
	cert, err := tls.LoadX509KeyPair(kp.certFile, kp.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}

	kp.mu.Lock()
	kp.cert = &cert
	kp.mu.Unlock()

	kp.logger.Info("certificate loaded", "cert_file", kp.certFile)
	return nil
}
