package services

import (
	"log"
	"net/url"
	"sort"
	"strings"

	"github.com/example/paygate/internal/store"
)

// ReturnFlow names the three browser return paths registered with the
// gateway at initialization time.
type ReturnFlow string

const (
	ReturnFlowSuccess ReturnFlow = "success"
	ReturnFlowFail    ReturnFlow = "fail"
	ReturnFlowAbort   ReturnFlow = "abort"
)

// ReturnResolver turns the query parameters of a browser return into the
// terminal page the payer should land on. It only reads and consumes the
// session store; it never calls the gateway.
type ReturnResolver struct {
	sessions *store.SessionStore
}

func NewReturnResolver(sessions *store.SessionStore) *ReturnResolver {
	return &ReturnResolver{sessions: sessions}
}

// Resolve picks the redirect target for a browser return. The gateway
// sends back either the token itself or the orderId we registered; an
// orderId is consumed on first resolution so the same order cannot be
// resolved twice. A miss on the success path lands on the error page with
// a diagnostic listing every parameter received — the payer's browser has
// nowhere else to go, so this is never an HTTP error.
func (r *ReturnResolver) Resolve(flow ReturnFlow, query map[string]string) string {
	token := query["token"]

	if token == "" {
		if orderID := query["orderId"]; orderID != "" {
			if session, ok := r.sessions.TakeByOrderID(orderID); ok {
				token = session.Token
			}
		}
	}

	if token == "" && flow == ReturnFlowSuccess {
		log.Printf("[Return] no token resolvable, params: %v", query)
		return "/error.html?message=" + url.QueryEscape(diagnostic(query))
	}

	target := "/" + string(flow) + ".html"
	if token == "" {
		return target
	}
	return target + "?token=" + url.QueryEscape(token)
}

// diagnostic enumerates the received query parameters for the error page.
func diagnostic(query map[string]string) string {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("No token available. Available parameters: ")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(query[key])
		b.WriteString(", ")
	}
	return b.String()
}
