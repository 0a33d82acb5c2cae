package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Credentials is the registry connection set stored in the registry secret. Field
// names follow the Confluent client configuration keys.
type Credentials struct {
	URL               string `json:"url"`
	BasicAuthUserInfo string `json:"basic.auth.user.info"`

	// Ignored lists the secret's other keys, sorted. The client does not act on them.
	Ignored []string `json:"-"`
}

func (c *Credentials) UnmarshalJSON(data []byte) error {
	type plain Credentials
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range all {
		if k != "url" && k != "basic.auth.user.info" {
			p.Ignored = append(p.Ignored, k)
		}
	}
	sort.Strings(p.Ignored)

	*c = Credentials(p)
	return nil
}

// ParseCredentials reads a secret payload into Credentials. The url key is
// required; basic auth is optional but must be "key:secret" when present.
func ParseCredentials(data []byte) (Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("parse registry credentials: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Credentials{}, err
	}

	return c, nil
}

func (c Credentials) Validate() error {
	if len(c.URLs()) == 0 {
		return errors.New("registry credentials: url is required")
	}

	if c.BasicAuthUserInfo != "" {
		if _, _, ok := c.BasicAuth(); !ok {
			return errors.New("registry credentials: basic.auth.user.info must be key:secret")
		}
	}

	return nil
}

// URLs splits the comma separated url field.
func (c Credentials) URLs() []string {
	var out []string
	for _, u := range strings.Split(c.URL, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (c Credentials) BasicAuth() (user, pass string, ok bool) {
	user, pass, ok = strings.Cut(c.BasicAuthUserInfo, ":")
	if !ok || user == "" {
		return "", "", false
	}
	return user, pass, true
}

// String hides the secret half of the basic auth pair.
func (c Credentials) String() string {
	user, _, ok := c.BasicAuth()
	if !ok {
		return "url=" + c.URL
	}
	return "url=" + c.URL + " user=" + user
}
