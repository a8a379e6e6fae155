// Package ssh implements the honeypot's fake SSH server: an OpenSSH
// lookalike that accepts every credential, records everything the
// client does, and serves an emulated shell and SFTP subsystem.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gossh "golang.org/x/crypto/ssh"

	sftpadapter "github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/adapter/sftp"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/logger"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/config"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/geoip"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/metrics"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/reputation"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/shell"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/vfs"
)

// Permissions extension keys carrying auth state from the handshake
// callbacks into the connection handler.
const (
	extAuthID   = "auth-id"
	extClientIP = "client-ip"
)

// Server is the honeypot SSH adapter. It binds one listener per
// configured interface and handles every connection until Stop.
type Server struct {
	cfg      config.SSHConfig
	rec      *recorder.Recorder
	fs       *vfs.FileSystem
	metrics  *metrics.Metrics
	abuse    *reputation.Client
	geo      *geoip.Client
	registry *shell.Registry

	sshConfig *gossh.ServerConfig

	listeners    []net.Listener
	listenerMu   sync.Mutex
	activeConns  sync.WaitGroup
	conns        sync.Map
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewServer builds the SSH adapter. The enrichment clients may be nil
// when the respective service is disabled.
func NewServer(
	cfg config.SSHConfig,
	rec *recorder.Recorder,
	fs *vfs.FileSystem,
	m *metrics.Metrics,
	abuse *reputation.Client,
	geo *geoip.Client,
) (*Server, error) {
	signers, err := LoadHostKeys(cfg.KeyDir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		rec:      rec,
		fs:       fs,
		metrics:  m,
		abuse:    abuse,
		geo:      geo,
		registry: shell.NewDefaultRegistry(),
		shutdown: make(chan struct{}),
	}

	sshCfg := &gossh.ServerConfig{
		ServerVersion:               cfg.ServerID,
		PasswordCallback:            s.passwordCallback,
		PublicKeyCallback:           s.publicKeyCallback,
		KeyboardInteractiveCallback: s.keyboardInteractiveCallback,
	}
	if cfg.Banner != "" {
		banner := cfg.Banner
		sshCfg.BannerCallback = func(gossh.ConnMetadata) string { return banner }
	}
	for _, signer := range signers {
		sshCfg.AddHostKey(signer)
	}
	s.sshConfig = sshCfg

	return s, nil
}

// Serve binds the listeners and accepts connections until ctx is
// cancelled or Stop is called. Returns nil on clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	addrs := s.cfg.Interfaces
	if len(addrs) == 0 {
		addrs = []string{""}
	}

	lc := net.ListenConfig{
		Control: socketControl(!s.cfg.DisableSOReuseaddr, !s.cfg.DisableSOReuseport),
	}

	s.listenerMu.Lock()
	for _, addr := range addrs {
		ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", addr, s.cfg.Port))
		if err != nil {
			for _, open := range s.listeners {
				_ = open.Close()
			}
			s.listenerMu.Unlock()
			return fmt.Errorf("listen on %s:%d: %w", addr, s.cfg.Port, err)
		}
		s.listeners = append(s.listeners, ln)
		logger.Info("honeypot listening", "addr", ln.Addr().String())
	}
	listeners := s.listeners
	s.listenerMu.Unlock()

	go func() {
		<-ctx.Done()
		s.initiateShutdown()
	}()

	var wg sync.WaitGroup
	for _, ln := range listeners {
		wg.Add(1)
		go func(ln net.Listener) {
			defer wg.Done()
			s.acceptLoop(ctx, ln)
		}(ln)
	}
	wg.Wait()

	s.activeConns.Wait()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		tcpConn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				logger.Debug("accept error", "error", err)
				continue
			}
		}

		s.activeConns.Add(1)
		s.conns.Store(tcpConn.RemoteAddr().String(), tcpConn)

		go func(conn net.Conn) {
			defer func() {
				s.conns.Delete(conn.RemoteAddr().String())
				s.activeConns.Done()
			}()
			s.handleConn(ctx, conn)
		}(tcpConn)
	}
}

// Stop shuts the server down: listeners close first, then active
// connections are given until ctx expires before being force-closed.
func (s *Server) Stop(ctx context.Context) error {
	s.initiateShutdown()

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("ssh adapter shutdown complete")
		return nil
	case <-ctx.Done():
		var remaining int
		s.conns.Range(func(_, value any) bool {
			if conn, ok := value.(net.Conn); ok {
				_ = conn.Close()
				remaining++
			}
			return true
		})
		logger.Warn("ssh adapter shutdown timeout, force-closed connections", "count", remaining)
		return fmt.Errorf("ssh shutdown timeout: %d connections force-closed", remaining)
	}
}

func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		s.listenerMu.Lock()
		for _, ln := range s.listeners {
			_ = ln.Close()
		}
		s.listenerMu.Unlock()
	})
}

// handleConn runs one TCP connection through handshake, session
// channels and teardown.
func (s *Server) handleConn(ctx context.Context, tcpConn net.Conn) {
	defer func() { _ = tcpConn.Close() }()

	ip := remoteIP(tcpConn.RemoteAddr())
	connLC := logger.NewLogContext(ip)
	connLC.SessionID = uuid.NewString()
	ctx = logger.WithContext(ctx, connLC)

	s.metrics.RecordConnection()
	if err := s.rec.RecordConnect(ctx, ip); err != nil {
		logger.ErrorCtx(ctx, "failed to record connection", "error", err)
	}
	s.enrichInBackground(ip)

	// A real sshd never answers instantly.
	time.Sleep(time.Duration(rand.Intn(501)) * time.Millisecond)

	sconn, chans, reqs, err := gossh.NewServerConn(tcpConn, s.sshConfig)
	if err != nil {
		// Expected constantly: scanners probing, wrong protocols,
		// rejected auth when reject_all_auth is set.
		logger.DebugCtx(ctx, "handshake failed", "error", err)
		return
	}
	defer func() { _ = sconn.Close() }()

	lc := logger.FromContext(ctx).WithUsername(sconn.User())
	if sconn.Permissions != nil {
		lc = lc.WithAuthID(sconn.Permissions.Extensions[extAuthID])
	}
	ctx = logger.WithContext(ctx, lc)
	logger.InfoCtx(ctx, "client authenticated", "client_version", string(sconn.ClientVersion()))

	if !s.cfg.DisableCLI {
		s.ensureUserHome(sconn.User())
	}

	go gossh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(gossh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			logger.DebugCtx(ctx, "failed to accept channel", "error", err)
			continue
		}
		go s.handleSession(ctx, sconn, channel, requests)
	}
}

// handleSession serves one "session" channel: pty and shell requests,
// one-shot exec commands, and the SFTP subsystem.
func (s *Server) handleSession(ctx context.Context, sconn *gossh.ServerConn, channel gossh.Channel, requests <-chan *gossh.Request) {
	defer func() { _ = channel.Close() }()

	authID := ""
	if sconn.Permissions != nil {
		authID = sconn.Permissions.Extensions[extAuthID]
	}

	for req := range requests {
		switch req.Type {
		case "pty-req", "env", "window-change":
			replyOK(req)

		case "shell":
			if s.cfg.DisableCLI {
				logger.DebugCtx(ctx, "shell request refused, cli disabled")
				replyErr(req)
				continue
			}
			replyOK(req)
			go func() {
				defer func() { _ = channel.Close() }()
				s.runShell(ctx, sconn.User(), authID, channel)
			}()

		case "exec":
			cmd := parseExecPayload(req.Payload)
			replyOK(req)
			s.handleExec(ctx, authID, channel, cmd)
			return

		case "subsystem":
			name := parseExecPayload(req.Payload)
			if name != "sftp" || !s.cfg.EnableSFTP {
				logger.DebugCtx(ctx, "subsystem refused", "name", name)
				replyErr(req)
				continue
			}
			replyOK(req)
			logger.InfoCtx(ctx, "sftp subsystem started")
			if err := sftpadapter.Serve(ctx, channel, s.rec, s.fs, s.metrics, authID); err != nil {
				logger.DebugCtx(ctx, "sftp subsystem ended", "error", err)
			}
			return

		default:
			logger.DebugCtx(ctx, "unsupported channel request", "type", req.Type)
			replyErr(req)
		}
	}
}

func (s *Server) runShell(ctx context.Context, username, authID string, channel gossh.Channel) {
	out := newTarpitWriter(channel, s.cfg.Tarpit)
	defer func() { _ = out.Close() }()

	sess := &session{
		channel:    channel,
		out:        out,
		shellCtx:   shell.NewContext(username, s.cfg.Hostname, s.fs),
		registry:   s.registry,
		rec:        s.rec,
		metrics:    s.metrics,
		authID:     authID,
		inactivity: s.cfg.InactivityTimeout,
	}
	sess.run(ctx)
}

// handleExec answers `ssh user@host "command"` invocations. The command
// is recorded but never emulated; every intruder gets the same taunt.
func (s *Server) handleExec(ctx context.Context, authID string, channel gossh.Channel, cmd string) {
	logger.InfoCtx(ctx, "exec request", logger.KeyCommand, cmd)
	if err := s.rec.RecordCommand(ctx, authID, cmd); err != nil {
		logger.ErrorCtx(ctx, "failed to record exec command", "error", err)
	}
	if name := strings.Fields(cmd); len(name) > 0 {
		s.metrics.RecordCommand(name[0])
	}

	out := newTarpitWriter(channel, s.cfg.Tarpit)
	_, _ = out.WriteString(fmt.Sprintf(
		"You thought I'm going to execute '%s'. But jokes on you. You are now my slave.", cmd))
	_ = out.Close()
	_, _ = channel.SendRequest("exit-status", false, gossh.Marshal(struct{ Status uint32 }{0}))
}

// ensureUserHome creates /home/<user> so the shell has somewhere to
// land. Errors don't matter; this is a honeypot, not Linux.
func (s *Server) ensureUserHome(username string) {
	home := "/home/" + username
	if username == "root" {
		home = "/root"
	}
	if err := s.fs.MkdirAll(home, 0o755, 1000, 1000); err != nil {
		logger.Warn("failed to create user home", "path", home, "error", err)
	}
}

// passwordCallback records the credentials and lets everyone in (unless
// reject_all_auth is set, in which case it records and refuses).
func (s *Server) passwordCallback(conn gossh.ConnMetadata, password []byte) (*gossh.Permissions, error) {
	ip := remoteIP(conn.RemoteAddr())
	logger.Info("password auth attempt",
		logger.KeyClientIP, ip,
		logger.KeyUsername, conn.User(),
		"password", string(password))

	return s.recordAuth(conn, recorder.AuthMethodPassword, string(password), "")
}

func (s *Server) publicKeyCallback(conn gossh.ConnMetadata, key gossh.PublicKey) (*gossh.Permissions, error) {
	ip := remoteIP(conn.RemoteAddr())
	marshaled := strings.TrimSpace(string(gossh.MarshalAuthorizedKey(key)))
	logger.Info("public key auth attempt",
		logger.KeyClientIP, ip,
		logger.KeyUsername, conn.User(),
		"fingerprint", gossh.FingerprintSHA256(key))

	return s.recordAuth(conn, recorder.AuthMethodPublicKey, "", marshaled)
}

func (s *Server) keyboardInteractiveCallback(conn gossh.ConnMetadata, client gossh.KeyboardInteractiveChallenge) (*gossh.Permissions, error) {
	answers, err := client("", "", []string{"Password: "}, []bool{false})
	password := ""
	if err == nil && len(answers) > 0 {
		password = answers[0]
	}

	logger.Info("keyboard-interactive auth attempt",
		logger.KeyClientIP, remoteIP(conn.RemoteAddr()),
		logger.KeyUsername, conn.User(),
		"password", password)

	return s.recordAuth(conn, recorder.AuthMethodKeyboardInteractive, password, "")
}

func (s *Server) recordAuth(conn gossh.ConnMetadata, method recorder.AuthMethod, password, publicKey string) (*gossh.Permissions, error) {
	ip := remoteIP(conn.RemoteAddr())
	s.metrics.RecordAuthAttempt(string(method))

	authID, err := s.rec.RecordAuth(context.Background(), recorder.Auth{
		IP:            ip,
		Username:      conn.User(),
		Password:      password,
		PublicKey:     publicKey,
		Method:        method,
		ClientVersion: string(conn.ClientVersion()),
		Successful:    !s.cfg.RejectAllAuth,
		Timestamp:     time.Now().UTC(),
	})
	if err != nil {
		logger.Error("failed to record auth attempt", "error", err)
	}

	// Mimic the verification delay of a real server.
	time.Sleep(time.Duration(rand.Intn(501)) * time.Millisecond)

	if s.cfg.RejectAllAuth {
		return nil, fmt.Errorf("permission denied")
	}

	return &gossh.Permissions{
		Extensions: map[string]string{
			extAuthID:   authID,
			extClientIP: ip,
		},
	}, nil
}

// enrichInBackground fires the reputation and geolocation lookups
// without blocking the handshake. Results land in the caches and logs.
func (s *Server) enrichInBackground(ip string) {
	if s.abuse != nil {
		go func() {
			result, err := s.abuse.CheckIP(context.Background(), ip)
			if err != nil {
				var rateLimited *reputation.RateLimitError
				if errors.As(err, &rateLimited) {
					logger.Warn("abuseipdb rate limit exceeded", logger.KeyClientIP, ip, "error", rateLimited)
				} else {
					logger.Warn("abuseipdb check failed", logger.KeyClientIP, ip, "error", err)
				}
				s.metrics.RecordEnrichmentLookup("abuseipdb", "error")
				return
			}
			s.metrics.RecordEnrichmentLookup("abuseipdb", "api")
			logger.Info("abuseipdb check",
				logger.KeyClientIP, ip,
				"confidence", result.AbuseConfidenceScore,
				"country", result.CountryCode,
				"tor", result.IsTor,
				"reports", result.TotalReports)
		}()
	}

	if s.geo != nil {
		go func() {
			loc, err := s.geo.Lookup(context.Background(), ip)
			if err != nil {
				logger.Warn("geoip lookup failed", logger.KeyClientIP, ip, "error", err)
				s.metrics.RecordEnrichmentLookup("ip-api", "error")
				return
			}
			s.metrics.RecordEnrichmentLookup("ip-api", "api")
			logger.Info("geoip lookup",
				logger.KeyClientIP, ip,
				"country", loc.Country,
				"region", loc.RegionName,
				"lat", loc.Lat,
				"lon", loc.Lon,
				"org", loc.Org)
		}()
	}
}

func replyOK(req *gossh.Request) {
	if req.WantReply {
		_ = req.Reply(true, nil)
	}
}

func replyErr(req *gossh.Request) {
	if req.WantReply {
		_ = req.Reply(false, nil)
	}
}

// parseExecPayload extracts the string from an exec or subsystem
// request payload (uint32 length followed by the bytes).
func parseExecPayload(payload []byte) string {
	if len(payload) < 4 {
		return ""
	}
	length := int(payload[0])<<24 | int(payload[1])<<16 | int(payload[2])<<8 | int(payload[3])
	if length < 0 || 4+length > len(payload) {
		return string(payload[4:])
	}
	return string(payload[4 : 4+length])
}

// remoteIP strips the port from a remote address.
func remoteIP(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
