package oza

import (
	"github.com/PuerkitoBio/goquery"
)

// SessionState is the complete hidden-field set of the most recently
// received page. Submitting against a page is only valid with the
// state from the immediately preceding response on that page, so the
// state is passed around as an explicit value instead of living
// inside the client, so the data flow makes the ordering requirement
// visible at the call site.
type SessionState map[string]string

// merged produces the full form field set for one postback: the
// carried state, then the event designator, then the caller's
// overrides, later entries winning.
func (s SessionState) merged(action NavigationAction) map[string]string {
	fields := make(map[string]string, len(s)+2+len(action.Form))
	for k, v := range s {
		fields[k] = v
	}
	if action.EventTarget != "" {
		fields["__EVENTTARGET"] = action.EventTarget
	}
	fields["__EVENTARGUMENT"] = action.EventArgument
	for k, v := range action.Form {
		fields[k] = v
	}
	return fields
}

// NavigationAction is one simulated UI event: the control that
// triggered the postback plus the form fields the "user" changed.
type NavigationAction struct {
	EventTarget   string
	EventArgument string
	Form          map[string]string
}

// ExtractHiddenFields collects every named hidden input on the page.
// The blob is opaque; __VIEWSTATE and friends are carried forward
// verbatim without interpretation.
func ExtractHiddenFields(doc *goquery.Document) SessionState {
	state := SessionState{}
	doc.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok || name == "" {
			return
		}
		state[name] = input.AttrOr("value", "")
	})
	return state
}
