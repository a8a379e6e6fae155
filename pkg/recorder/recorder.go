// Package recorder persists everything the honeypot observes. All writes
// funnel through a single consumer goroutine over a bounded queue so that
// slow database inserts never stall a live attacker session, and so SQLite
// only ever sees one writer.
package recorder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/logger"
)

// queueSize bounds the message queue between sessions and the writer.
const queueSize = 100

// DefaultCacheTTL is how long cached enrichment rows stay valid.
const DefaultCacheTTL = 24 * time.Hour

// ErrShuttingDown is returned when a record is submitted after Shutdown.
var ErrShuttingDown = errors.New("recorder: shutting down")

// message is the internal queue element. Exactly one of the fields is set.
type message struct {
	auth    *authRequest
	command *Command
	session *Session
	connect *Connect
	upload  *UploadedFile

	getAbuse    *abuseGetRequest
	putAbuse    *AbuseIPCheck
	getGeo      *geoGetRequest
	putGeo      *IPApiCheck
	shutdown    bool
	shutdownAck chan struct{}
}

type authRequest struct {
	auth  Auth
	reply chan string
}

type abuseGetRequest struct {
	ip    string
	ttl   time.Duration
	reply chan *AbuseIPCheck
}

type geoGetRequest struct {
	ip    string
	ttl   time.Duration
	reply chan *IPApiCheck
}

// Recorder is the write-side handle shared by every session.
type Recorder struct {
	store *Store
	queue chan message
	done  chan struct{}
}

// New creates a Recorder over store. Call Run in a goroutine to start the
// consumer before submitting records.
func New(store *Store) *Recorder {
	return &Recorder{
		store: store,
		queue: make(chan message, queueSize),
		done:  make(chan struct{}),
	}
}

// Store exposes the read-side of the underlying store.
func (r *Recorder) Store() *Store {
	return r.store
}

// Run consumes the queue until a Shutdown message arrives. Insert errors
// are logged and the loop continues; losing one row is better than losing
// the honeypot.
func (r *Recorder) Run() {
	defer close(r.done)

	ctx := context.Background()
	for msg := range r.queue {
		switch {
		case msg.auth != nil:
			auth := msg.auth.auth
			if auth.ID == "" {
				auth.ID = uuid.NewString()
			}
			if err := r.store.InsertAuth(ctx, &auth); err != nil {
				logger.Error("Failed to record auth attempt", "error", err, "ip", auth.IP)
			}
			msg.auth.reply <- auth.ID

		case msg.command != nil:
			if err := r.store.InsertCommand(ctx, msg.command); err != nil {
				logger.Error("Failed to record command", "error", err, "auth_id", msg.command.AuthID)
			}

		case msg.session != nil:
			if err := r.store.InsertSession(ctx, msg.session); err != nil {
				logger.Error("Failed to record session", "error", err, "auth_id", msg.session.AuthID)
			}

		case msg.connect != nil:
			if err := r.store.InsertConnect(ctx, msg.connect); err != nil {
				logger.Error("Failed to record connection", "error", err, "ip", msg.connect.IP)
			}

		case msg.upload != nil:
			if err := r.store.InsertUpload(ctx, msg.upload); err != nil {
				logger.Error("Failed to record file upload", "error", err, "path", msg.upload.Path)
			}

		case msg.getAbuse != nil:
			check, err := r.store.GetAbuseIPCheck(ctx, msg.getAbuse.ip, msg.getAbuse.ttl)
			if err != nil {
				logger.Error("Failed to read abuse cache", "error", err, "ip", msg.getAbuse.ip)
				check = nil
			}
			msg.getAbuse.reply <- check

		case msg.putAbuse != nil:
			if err := r.store.UpsertAbuseIPCheck(ctx, msg.putAbuse); err != nil {
				logger.Error("Failed to write abuse cache", "error", err, "ip", msg.putAbuse.IP)
			}

		case msg.getGeo != nil:
			check, err := r.store.GetIPApiCheck(ctx, msg.getGeo.ip, msg.getGeo.ttl)
			if err != nil {
				logger.Error("Failed to read geolocation cache", "error", err, "ip", msg.getGeo.ip)
				check = nil
			}
			msg.getGeo.reply <- check

		case msg.putGeo != nil:
			if err := r.store.UpsertIPApiCheck(ctx, msg.putGeo); err != nil {
				logger.Error("Failed to write geolocation cache", "error", err, "ip", msg.putGeo.IP)
			}

		case msg.shutdown:
			if msg.shutdownAck != nil {
				close(msg.shutdownAck)
			}
			return
		}
	}
}

// submit enqueues a message, respecting context cancellation.
func (r *Recorder) submit(ctx context.Context, msg message) error {
	// The queue is buffered, so a plain select could still enqueue after
	// the consumer has exited. Check for shutdown first.
	select {
	case <-r.done:
		return ErrShuttingDown
	default:
	}

	select {
	case r.queue <- msg:
		return nil
	case <-r.done:
		return ErrShuttingDown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordAuth stores one authentication attempt and returns the UUID
// assigned to it. Follow-up records (commands, sessions, uploads)
// reference this UUID.
func (r *Recorder) RecordAuth(ctx context.Context, auth Auth) (string, error) {
	req := &authRequest{auth: auth, reply: make(chan string, 1)}
	if err := r.submit(ctx, message{auth: req}); err != nil {
		return "", err
	}
	select {
	case id := <-req.reply:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// RecordCommand stores one executed shell line.
func (r *Recorder) RecordCommand(ctx context.Context, authID, command string) error {
	return r.submit(ctx, message{command: &Command{
		AuthID:    authID,
		Command:   command,
		Timestamp: time.Now(),
	}})
}

// RecordSession stores a finished session summary.
func (r *Recorder) RecordSession(ctx context.Context, authID string, duration time.Duration, clientVersion string) error {
	return r.submit(ctx, message{session: &Session{
		AuthID:        authID,
		DurationMs:    duration.Milliseconds(),
		ClientVersion: clientVersion,
		Timestamp:     time.Now(),
	}})
}

// RecordConnect stores a raw TCP connection before authentication.
func (r *Recorder) RecordConnect(ctx context.Context, ip string) error {
	return r.submit(ctx, message{connect: &Connect{
		IP:        ip,
		Timestamp: time.Now(),
	}})
}

// RecordFileUpload stores an analyzed SFTP upload.
func (r *Recorder) RecordFileUpload(ctx context.Context, upload UploadedFile) error {
	if upload.Timestamp.IsZero() {
		upload.Timestamp = time.Now()
	}
	return r.submit(ctx, message{upload: &upload})
}

// GetAbuseIPCheck reads the DB cache tier for an AbuseIPDB lookup.
// Returns nil without error on a miss.
func (r *Recorder) GetAbuseIPCheck(ctx context.Context, ip string, ttl time.Duration) (*AbuseIPCheck, error) {
	req := &abuseGetRequest{ip: ip, ttl: ttl, reply: make(chan *AbuseIPCheck, 1)}
	if err := r.submit(ctx, message{getAbuse: req}); err != nil {
		return nil, err
	}
	select {
	case check := <-req.reply:
		return check, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RecordAbuseIPCheck refreshes the DB cache tier for an AbuseIPDB lookup.
func (r *Recorder) RecordAbuseIPCheck(ctx context.Context, check AbuseIPCheck) error {
	if check.Timestamp.IsZero() {
		check.Timestamp = time.Now()
	}
	return r.submit(ctx, message{putAbuse: &check})
}

// GetIPApiCheck reads the DB cache tier for a geolocation lookup.
// Returns nil without error on a miss.
func (r *Recorder) GetIPApiCheck(ctx context.Context, ip string, ttl time.Duration) (*IPApiCheck, error) {
	req := &geoGetRequest{ip: ip, ttl: ttl, reply: make(chan *IPApiCheck, 1)}
	if err := r.submit(ctx, message{getGeo: req}); err != nil {
		return nil, err
	}
	select {
	case check := <-req.reply:
		return check, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RecordIPApiCheck refreshes the DB cache tier for a geolocation lookup.
func (r *Recorder) RecordIPApiCheck(ctx context.Context, check IPApiCheck) error {
	if check.Timestamp.IsZero() {
		check.Timestamp = time.Now()
	}
	return r.submit(ctx, message{putGeo: &check})
}

// Shutdown drains the queue and stops the consumer. Messages already
// queued are processed before the consumer exits.
func (r *Recorder) Shutdown(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case r.queue <- message{shutdown: true, shutdownAck: ack}:
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
