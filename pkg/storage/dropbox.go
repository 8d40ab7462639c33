package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"slices"
	"strings"
	"sync"
	"unicode/utf16"
)

// Default Dropbox API hosts.
const (
	DefaultDropboxAPIURL     = "https://api.dropboxapi.com"
	DefaultDropboxContentURL = "https://content.dropboxapi.com"
)

// DropboxOptions configures a Dropbox store.
type DropboxOptions struct {
	// Token is the OAuth2 access token of the app. Required.
	Token string

	// Root is the folder holding the files, relative to the app folder.
	// Empty means the app folder itself.
	Root string

	// APIURL and ContentURL override the API hosts, mainly for tests.
	APIURL     string
	ContentURL string

	// HTTPClient is optional. If nil, uses http.DefaultClient.
	HTTPClient *http.Client
}

// Dropbox implements FileStore on top of the Dropbox HTTP API (v2).
// Folders are real: writes create the parent folder first and listing reads
// the folder itself.
type Dropbox struct {
	token      string
	root       string // "" or "/dir"
	apiURL     string
	contentURL string
	client     *http.Client
}

// NewDropbox creates a Dropbox store.
func NewDropbox(opts DropboxOptions) (*Dropbox, error) {
	if opts.Token == "" {
		return nil, errors.New("storage: dropbox token is required")
	}
	d := &Dropbox{
		token:      opts.Token,
		apiURL:     strings.TrimSuffix(opts.APIURL, "/"),
		contentURL: strings.TrimSuffix(opts.ContentURL, "/"),
		client:     opts.HTTPClient,
	}
	if root := strings.Trim(opts.Root, "/"); root != "" {
		if !fs.ValidPath(root) {
			return nil, fmt.Errorf("%w: dropbox root %q", ErrInvalidPath, opts.Root)
		}
		d.root = "/" + root
	}
	if d.apiURL == "" {
		d.apiURL = DefaultDropboxAPIURL
	}
	if d.contentURL == "" {
		d.contentURL = DefaultDropboxContentURL
	}
	if d.client == nil {
		d.client = http.DefaultClient
	}
	return d, nil
}

// DropboxError is an error response of the Dropbox API.
type DropboxError struct {
	// Summary is the machine readable error_summary, such as
	// "path/not_found/..".
	Summary string `json:"error_summary"`

	// HTTPStatus is the HTTP status code.
	HTTPStatus int `json:"-"`
}

func (e *DropboxError) Error() string {
	return fmt.Sprintf("dropbox: %s (http=%d)", e.Summary, e.HTTPStatus)
}

// NotFound reports whether the path of the request does not exist.
func (e *DropboxError) NotFound() bool {
	return e.HTTPStatus == http.StatusConflict && strings.Contains(e.Summary, "not_found")
}

// Conflict reports whether something already exists at the path.
func (e *DropboxError) Conflict() bool {
	return e.HTTPStatus == http.StatusConflict && strings.Contains(e.Summary, "conflict")
}

// Is makes missing paths match fs.ErrNotExist.
func (e *DropboxError) Is(target error) bool {
	return target == fs.ErrNotExist && e.NotFound()
}

// resolve turns a storage path into a Dropbox path. The store root is ""
// when it is the app folder.
func (d *Dropbox) resolve(p string) (string, error) {
	if p == "" {
		return d.root, nil
	}
	clean := path.Clean(p)
	if clean == "." {
		return d.root, nil
	}
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return d.root + "/" + clean, nil
}

// ReadFile downloads the named file.
func (d *Dropbox) ReadFile(ctx context.Context, p string) ([]byte, error) {
	full, err := d.resolve(p)
	if err != nil {
		return nil, err
	}
	if full == d.root {
		return nil, fmt.Errorf("%w: empty file name", ErrInvalidPath)
	}
	return d.content(ctx, "files/download", map[string]any{"path": full}, nil)
}

// WriteFile creates the parent folder if it is missing and uploads data,
// overwriting any previous file.
func (d *Dropbox) WriteFile(ctx context.Context, p string, data []byte) error {
	full, err := d.resolve(p)
	if err != nil {
		return err
	}
	if full == d.root {
		return fmt.Errorf("%w: empty file name", ErrInvalidPath)
	}
	if err := d.createParentIfMissing(ctx, full); err != nil {
		return err
	}
	_, err = d.content(ctx, "files/upload", map[string]any{
		"path":       full,
		"mode":       "overwrite",
		"autorename": false,
		"mute":       true,
	}, data)
	return err
}

func (d *Dropbox) createParentIfMissing(ctx context.Context, full string) error {
	parent := path.Dir(full)
	if parent == "/" {
		return nil
	}
	err := d.rpc(ctx, "files/create_folder_v2", map[string]any{"path": parent, "autorename": false}, nil)
	var apiErr *DropboxError
	if errors.As(err, &apiErr) && apiErr.Conflict() {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create folder %s: %w", parent, err)
	}
	return nil
}

// Delete removes the named file. A missing file is not an error.
func (d *Dropbox) Delete(ctx context.Context, p string) error {
	full, err := d.resolve(p)
	if err != nil {
		return err
	}
	if full == d.root {
		return fmt.Errorf("%w: empty file name", ErrInvalidPath)
	}
	return d.remove(ctx, full)
}

func (d *Dropbox) remove(ctx context.Context, full string) error {
	err := d.rpc(ctx, "files/delete_v2", map[string]any{"path": full}, nil)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// dropboxEntry is one entry of a folder listing.
type dropboxEntry struct {
	Tag  string `json:".tag"`
	Name string `json:"name"`
}

type listFolderResult struct {
	Entries []dropboxEntry `json:"entries"`
	Cursor  string         `json:"cursor"`
	HasMore bool           `json:"has_more"`
}

func (d *Dropbox) listFolder(ctx context.Context, full string) ([]dropboxEntry, error) {
	var res listFolderResult
	if err := d.rpc(ctx, "files/list_folder", map[string]any{"path": full}, &res); err != nil {
		return nil, err
	}
	entries := res.Entries
	for res.HasMore {
		cursor := res.Cursor
		res = listFolderResult{}
		if err := d.rpc(ctx, "files/list_folder/continue", map[string]any{"cursor": cursor}, &res); err != nil {
			return nil, err
		}
		entries = append(entries, res.Entries...)
	}
	return entries, nil
}

// List returns the files directly inside dir, sorted by name. Folders are
// not included.
func (d *Dropbox) List(ctx context.Context, dir string) ([]string, error) {
	full, err := d.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := d.listFolder(ctx, full)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Tag == "file" {
			names = append(names, e.Name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Wipe removes every entry of the root folder concurrently. A missing root
// folder means there is nothing to wipe.
func (d *Dropbox) Wipe(ctx context.Context) error {
	entries, err := d.listFolder(ctx, d.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, e := range entries {
		wg.Go(func() {
			if err := d.remove(ctx, d.root+"/"+e.Name); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("remove %s: %w", e.Name, err))
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// rpc calls an endpoint of the API host with a JSON argument.
func (d *Dropbox) rpc(ctx context.Context, endpoint string, arg, result any) error {
	body, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+"/2/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	data, err := d.do(req)
	if err != nil {
		return err
	}
	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// content calls an endpoint of the content host. The argument travels in
// the Dropbox-API-Arg header; the bodies carry the file contents.
func (d *Dropbox) content(ctx context.Context, endpoint string, arg any, upload []byte) ([]byte, error) {
	header, err := headerJSON(arg)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	if upload != nil {
		body = bytes.NewReader(upload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.contentURL+"/2/"+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Dropbox-API-Arg", header)
	if upload != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	return d.do(req)
}

func (d *Dropbox) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+d.token)
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseDropboxError(data, resp.StatusCode)
	}
	return data, nil
}

func parseDropboxError(body []byte, status int) error {
	e := &DropboxError{HTTPStatus: status}
	if err := json.Unmarshal(body, e); err != nil || e.Summary == "" {
		e.Summary = strings.TrimSpace(string(body))
	}
	return e
}

// headerJSON encodes v as JSON that is safe in an HTTP header: every
// non-ASCII character is escaped.
func headerJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal api arg: %w", err)
	}
	var b strings.Builder
	for _, r := range string(data) {
		switch {
		case r < 0x7f:
			b.WriteRune(r)
		case r > 0xffff:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String(), nil
}

// Compile-time interface check.
var _ FileStore = (*Dropbox)(nil)
