package sftp

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/Gen7Fuel/thehub-sub000/internal/config"
)

const (
	dialTimeout = 10 * time.Second
	maxAttempts = 3
	baseBackoff = time.Second
)

// FileInfo is one report file in the site's drop directory.
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Factory builds per-site clients from the credential map injected at
// startup. No environment reads happen after construction.
type Factory struct {
	cfg    config.SFTPConfig
	logger *zap.Logger
}

func NewFactory(cfg config.SFTPConfig, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{cfg: cfg, logger: logger}
}

// ErrSiteNotConfigured reports a site with no SFTP credentials.
type ErrSiteNotConfigured struct{ Site string }

func (e ErrSiteNotConfigured) Error() string {
	return fmt.Sprintf("no sftp credentials configured for site %s", e.Site)
}

// ForSite returns a client for the site's report drop.
func (f *Factory) ForSite(site string) (*Client, error) {
	creds, ok := f.cfg.CredentialsFor(site)
	if !ok {
		return nil, ErrSiteNotConfigured{Site: site}
	}
	return &Client{creds: creds, logger: f.logger.With(zap.String("site", site))}, nil
}

// Client talks to one site's point-of-sale report drop. Every public
// method dials fresh, runs with retry, and closes the connection; the
// drop servers kill idle sessions aggressively so pooling buys nothing.
type Client struct {
	creds  config.SFTPCredentials
	logger *zap.Logger
}

// List returns the files in the given remote directory.
func (c *Client) List(ctx context.Context, dir string) ([]FileInfo, error) {
	var files []FileInfo
	err := c.withRetry(ctx, "list", func(sc *sftp.Client) error {
		entries, err := sc.ReadDir(dir)
		if err != nil {
			return err
		}
		files = files[:0]
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			files = append(files, FileInfo{
				Name:    e.Name(),
				Size:    e.Size(),
				ModTime: e.ModTime(),
			})
		}
		return nil
	})
	return files, err
}

// Fetch downloads one remote file.
func (c *Client) Fetch(ctx context.Context, dir, name string) ([]byte, error) {
	var data []byte
	err := c.withRetry(ctx, "fetch", func(sc *sftp.Client) error {
		fh, err := sc.Open(path.Join(dir, name))
		if err != nil {
			return err
		}
		defer fh.Close()
		data, err = io.ReadAll(fh)
		return err
	})
	return data, err
}

// withRetry dials and runs fn up to maxAttempts times with exponential
// backoff between attempts.
func (c *Client) withRetry(ctx context.Context, op string, fn func(*sftp.Client) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = c.attempt(fn)
		if lastErr == nil {
			return nil
		}
		c.logger.Warn("sftp attempt failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt < maxAttempts {
			wait := baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("sftp %s: %w", op, lastErr)
}

func (c *Client) attempt(fn func(*sftp.Client) error) error {
	conn, err := ssh.Dial("tcp", c.creds.Host, &ssh.ClientConfig{
		User:            c.creds.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(c.creds.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	sc, err := sftp.NewClient(conn)
	if err != nil {
		return fmt.Errorf("sftp session: %w", err)
	}
	defer sc.Close()

	return fn(sc)
}
