package link

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the only share-link protocol this tool converts.
const Scheme = "vless"

// Terminal parse failures. The process exits on any of these; there is no
// partial or degraded output.
var (
	ErrInvalidScheme   = errors.New("link must use the vless:// scheme")
	ErrMissingIdentity = errors.New("link has no user id")
	ErrMissingEndpoint = errors.New("link has no proxy host or port")
)

// Record is the decomposed form of a vless share link. Immutable once
// returned by Parse.
type Record struct {
	Scheme      string
	Identity    string
	Host        string
	Port        int
	Options     map[string]string
	DisplayName string
}

// Parse decomposes a vless://uuid@host:port?opts#name link. Checks run in
// a fixed order and the first failure wins: scheme prefix, scheme
// equality, identity, host and port, then query and fragment extraction.
func Parse(raw string) (*Record, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(raw), Scheme+"://") {
		return nil, ErrInvalidScheme
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingEndpoint, err)
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return nil, ErrInvalidScheme
	}

	identity := u.User.Username()
	if identity == "" {
		return nil, ErrMissingIdentity
	}

	host := u.Hostname()
	port, err := strconv.Atoi(u.Port())
	if host == "" || err != nil || port < 1 || port > 65535 {
		return nil, ErrMissingEndpoint
	}

	return &Record{
		Scheme:      Scheme,
		Identity:    identity,
		Host:        host,
		Port:        port,
		Options:     firstValues(u.RawQuery),
		DisplayName: u.Fragment,
	}, nil
}

// firstValues flattens a query string to one value per key: the first
// occurrence wins, and keys without a value keep an empty string rather
// than being dropped.
func firstValues(rawQuery string) map[string]string {
	values, _ := url.ParseQuery(rawQuery)
	opts := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			opts[key] = vals[0]
		} else {
			opts[key] = ""
		}
	}
	return opts
}

// AsParams lays the record out as the nested tree the synthesizer reads
// through safemap. DisplayName maps to "name", protocol options to
// "params".
func (r *Record) AsParams() map[string]any {
	params := make(map[string]any, len(r.Options))
	for k, v := range r.Options {
		params[k] = v
	}
	return map[string]any{
		"type": r.Scheme,
		"uuid": r.Identity,
		"server": map[string]any{
			"host": r.Host,
			"port": r.Port,
		},
		"params": params,
		"name":   r.DisplayName,
	}
}
