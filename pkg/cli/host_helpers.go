package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// normalizeHostURL checks that host is a bare http(s) origin and returns it
// without a trailing slash.
func normalizeHostURL(host string) (string, error) {
	host = strings.TrimSpace(host)
	u, err := url.Parse(host)
	switch {
	case host == "":
		err = errors.New("host URL cannot be empty")
	case err != nil:
	case u.Scheme != "http" && u.Scheme != "https":
		err = errors.New("scheme must be http or https")
	case u.Host == "":
		err = errors.New("missing host")
	case strings.Trim(u.Path, "/") != "":
		err = errors.New("host must not include a path")
	case u.RawQuery != "" || u.Fragment != "" || u.User != nil:
		err = errors.New("host must not include credentials, query or fragment")
	}
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", host, err)
	}
	return u.Scheme + "://" + u.Host, nil
}
