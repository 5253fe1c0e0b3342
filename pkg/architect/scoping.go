package architect

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"autodev/pkg/agent"
	"autodev/pkg/agent/taskrequest"
	"autodev/pkg/factsheet"
	"autodev/pkg/proto"
)

const projectScopeSignature = `// printProjectScope reads a website project description and decides what the build needs.
// It returns a JSON object with exactly these boolean fields:
//
//	{"is_crud_required": bool, "is_user_login_and_logout": bool, "is_external_urls_required": bool}
//
// is_crud_required is true when the site creates, reads, updates or deletes its own data.
// is_user_login_and_logout is true when users must sign in.
// is_external_urls_required is true only when the site must fetch data from third-party public APIs.
func printProjectScope(projectDescription string) ProjectScope`

const siteURLsSignature = `// printSiteURLs lists public API endpoints the website can call to satisfy the description.
// Only include endpoints that need no API key or login. Prefer well known, stable providers.
// It returns a JSON array of absolute http or https URLs, for example:
//
//	["https://api.example.com/v1/prices", "https://open.example.org/rates.json"]
func printSiteURLs(projectDescription string) []string`

// handleDiscovery determines the project scope and, when needed, the external URLs.
// An existing scope on the sheet is reused, never overwritten.
func (d *Driver) handleDiscovery(ctx context.Context, sheet *factsheet.FactSheet) (proto.State, error) {
	client := d.GetLLMClient()
	if client == nil {
		return proto.StateError, agent.ErrNoLLMClient
	}

	scope := sheet.ProjectScope
	if scope == nil {
		decoded, err := taskrequest.Request(ctx, client,
			d.task("Defining initial project scope", sheet.ProjectDescription, projectScopeSignature),
			taskrequest.Decoder[factsheet.ProjectScope](decodeProjectScope))
		if err != nil {
			return proto.StateError, fmt.Errorf("failed to determine project scope: %w", err)
		}
		scope = &decoded
		sheet.ProjectScope = scope
	} else {
		d.logger.Info("Project scope already set, reusing it")
		agent.SetTyped(d.BaseStateMachine, StateKeyScopeReused, true)
	}

	if !scope.IsExternalURLsRequired {
		d.logger.Info("No external URLs required")
		return proto.StateFinished, nil
	}

	if !sheet.HasExternalURLs() {
		urls, err := taskrequest.Request(ctx, client,
			d.task("Determining external urls", sheet.ProjectDescription, siteURLsSignature),
			taskrequest.JSONDecoder(validateURLs))
		if err != nil {
			return proto.StateError, fmt.Errorf("failed to determine external urls: %w", err)
		}
		sheet.ExternalURLs = urls
	}
	agent.SetTyped(d.BaseStateMachine, StateKeyURLCount, len(sheet.ExternalURLs))

	return proto.StateUnitTesting, nil
}

// scopeReply is the wire form of a scope reply. Every flag must be present.
type scopeReply struct {
	IsCRUDRequired         *bool `json:"is_crud_required"`
	IsUserLoginAndLogout   *bool `json:"is_user_login_and_logout"`
	IsExternalURLsRequired *bool `json:"is_external_urls_required"`
}

var errMissingScopeField = errors.New("missing scope field")

func requireScopeFields(r scopeReply) error {
	var missing []string
	if r.IsCRUDRequired == nil {
		missing = append(missing, "is_crud_required")
	}
	if r.IsUserLoginAndLogout == nil {
		missing = append(missing, "is_user_login_and_logout")
	}
	if r.IsExternalURLsRequired == nil {
		missing = append(missing, "is_external_urls_required")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errMissingScopeField, strings.Join(missing, ", "))
	}
	return nil
}

var scopeReplyDecoder = taskrequest.JSONDecoder(requireScopeFields)

// decodeProjectScope accepts only replies carrying all three scope flags and nothing else.
func decodeProjectScope(raw string) (factsheet.ProjectScope, error) {
	reply, err := scopeReplyDecoder(raw)
	if err != nil {
		return factsheet.ProjectScope{}, err
	}
	return factsheet.ProjectScope{
		IsCRUDRequired:         *reply.IsCRUDRequired,
		IsUserLoginAndLogout:   *reply.IsUserLoginAndLogout,
		IsExternalURLsRequired: *reply.IsExternalURLsRequired,
	}, nil
}

var errNotAbsoluteURL = errors.New("not an absolute http(s) URL")

// validateURLs rejects replies containing anything other than absolute http(s) URLs.
func validateURLs(urls []string) error {
	if urls == nil {
		return errors.New("expected a JSON array of URLs, got null")
	}
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%q: %w", raw, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%q: %w", raw, errNotAbsoluteURL)
		}
	}
	return nil
}
