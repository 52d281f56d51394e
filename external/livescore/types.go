package livescore

import (
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

// resultsPayload is the Next.js data envelope of the team results page. A stale build
// id yields one of the error shapes instead of pageProps.
type resultsPayload struct {
	PageProps *pageProps `json:"pageProps"`
	NotFound  bool       `json:"notFound"`
	Redirect  string     `json:"__N_REDIRECT"`
	Error     any        `json:"error"`
	Message   any        `json:"message"`
}

// isErrorEnvelope reports the stale build shapes. Data route redirects may sit at the
// top level or inside pageProps.
func (p resultsPayload) isErrorEnvelope() bool {
	if p.NotFound || strings.TrimSpace(p.Redirect) != "" {
		return true
	}
	if p.PageProps == nil {
		return p.Error != nil || p.Message != nil
	}
	return p.PageProps.NotFound || strings.TrimSpace(p.PageProps.Redirect) != ""
}

func (p resultsPayload) groups() ([]matchTypeGroup, bool) {
	if p.PageProps == nil || p.PageProps.InitialData == nil || p.PageProps.InitialData.EventsByMatchType == nil {
		return nil, false
	}
	return p.PageProps.InitialData.EventsByMatchType, true
}

type pageProps struct {
	InitialData *initialData `json:"initialData"`
	NotFound    bool         `json:"notFound"`
	Redirect    string       `json:"__N_REDIRECT"`
}

type initialData struct {
	EventsByMatchType []matchTypeGroup `json:"eventsByMatchType"`
}

type matchTypeGroup struct {
	CompN  string      `json:"CompN"`
	Snm    string      `json:"Snm"`
	Events []eventItem `json:"Events"`
}

type event struct {
	Esd flexString    `json:"Esd"`
	T1  []participant `json:"T1"`
	T2  []participant `json:"T2"`
	Tr1 flexString    `json:"Tr1"`
	Tr2 flexString    `json:"Tr2"`
	Eps flexString    `json:"Eps"`
}

type participant struct {
	Nm string `json:"Nm"`
}

// eventItem keeps a single undecodable event from failing the whole payload; it is
// flagged and later counted as skipped.
type eventItem struct {
	event
	malformed bool
}

func (e *eventItem) UnmarshalJSON(data []byte) error {
	var decoded event
	if err := sonic.Unmarshal(data, &decoded); err != nil {
		e.malformed = true
		return nil
	}
	e.event = decoded
	e.malformed = false
	return nil
}

// flexString accepts strings, numbers and null. The provider sends Esd and scores as
// either type depending on the endpoint revision.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*f = ""
		return nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
	case '{', '[':
		return crerr.Newf("unsupported scalar %s", abbreviateBody(data))
	default:
		*f = flexString(raw)
	}
	return nil
}

func (f flexString) String() string {
	return string(f)
}
