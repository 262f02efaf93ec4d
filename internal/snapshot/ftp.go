package snapshot

import (
	"context"
	"io"
	"net"
	"net/url"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// openFTP connects to the drop server anonymously and starts retrieving the
// snapshot file. Closing the returned reader releases the transfer and the
// control connection.
func (im *Importer) openFTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	addr, remote, err := splitDropURL(rawURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("snapshot: opening drop",
		zap.String("addr", addr),
		zap.String("file", remote),
	)

	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(im.timeout))
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: dial drop %s", addr)
	}
	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "snapshot: ftp login")
	}
	resp, err := conn.Retr(remote)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "snapshot: retrieve %s", remote)
	}
	return &dropReader{resp: resp, conn: conn}, nil
}

// dropReader releases both the data transfer and the control connection on
// Close. The first close error wins; the connection is quit either way.
type dropReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *dropReader) Read(p []byte) (int, error) { return r.resp.Read(p) }

func (r *dropReader) Close() error {
	err := r.resp.Close()
	if quitErr := r.conn.Quit(); err == nil {
		err = quitErr
	}
	if err != nil {
		return eris.Wrap(err, "snapshot: close drop transfer")
	}
	return nil
}

// splitDropURL validates an ftp:// URL and returns the dial address and the
// remote file path. A missing port defaults to 21.
func splitDropURL(rawURL string) (addr, remote string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "snapshot: parse drop url")
	}
	switch {
	case u.Scheme != "ftp":
		return "", "", eris.Errorf("snapshot: drop url must be ftp, got %q", u.Scheme)
	case u.Path == "" || u.Path == "/":
		return "", "", eris.Errorf("snapshot: drop url %q names no file", rawURL)
	}

	addr = u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "21")
	}
	return addr, u.Path, nil
}
