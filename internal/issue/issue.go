// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"

	"github.com/bootkit/bootkit/pkg/bootorder"
	"github.com/bootkit/bootkit/pkg/container"
	"github.com/bootkit/bootkit/pkg/cueutil"
	"github.com/bootkit/bootkit/pkg/lock"
	"github.com/bootkit/bootkit/pkg/manifest"
	"github.com/bootkit/bootkit/pkg/module"
	"github.com/bootkit/bootkit/pkg/registry"
)

const (
	MissingDependencyId Id = iota + 1
	DisabledDependencyId
	DependencyCycleId
	OrderVerificationId
	InvalidModuleId
	AmbiguousComponentId
	UnresolvedComponentId
	ComponentNotFoundId
	CircularReferenceId
	StillReferencedId
	ManifestInvalidId
	ConfigLoadFailedId
	LockUnavailableId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		// match reports whether an error is an instance of this issue.
		match func(error) bool
	}
)

var (
	render = glamour.Render

	missingDependencyIssue = &Issue{
		id:    MissingDependencyId,
		match: is(bootorder.ErrMissingDependency),
		mdMsg: `
# A module requires a module that does not exist

A required dependency names a module that is not part of the application.
Every required dependency must be declared, enabled or not.

## Things you can try
- Check the spelling of the name in the module's ` + "`requires`" + ` list
- Declare the missing module in the manifest
- Move the dependency to ` + "`optional`" + ` if the module can run without it

~~~
$ bootkit validate bootkit.cue
~~~`,
	}

	disabledDependencyIssue = &Issue{
		id:    DisabledDependencyId,
		match: is(bootorder.ErrDisabledDependency),
		mdMsg: `
# An enabled module requires a disabled module

The required module exists but is switched off, so the dependent module
could never find its components.

## Things you can try
- Enable the required module
- Disable the dependent module as well
- Move the dependency to ` + "`optional`",
	}

	dependencyCycleIssue = &Issue{
		id:    DependencyCycleId,
		match: is(bootorder.ErrCyclicDependency),
		mdMsg: `
# Modules depend on each other in a cycle

Required dependencies, together with the implicit edges toward
infrastructure modules and from post-processors, form a loop. No module in
the loop can be bootstrapped first.

## Things you can try
- Read the cycle path in the error message; it starts and ends on the same module
- Turn one of the required edges into an optional one
- Extract the shared components into a new module both sides require

~~~
$ bootkit graph --format mermaid bootkit.cue
~~~`,
	}

	orderVerificationIssue = &Issue{
		id:    OrderVerificationId,
		match: is(bootorder.ErrVerification),
		mdMsg: `
# The computed bootstrap order failed verification

This is an internal consistency failure: a module ended up before one of its
required dependencies. Please report it together with your manifest.`,
	}

	invalidModuleIssue = &Issue{
		id:    InvalidModuleId,
		match: anyOf(module.ErrInvalidDescriptor, module.ErrDuplicateModule, module.ErrInvalidRole),
		mdMsg: `
# A module declaration is invalid

Module names must be unique and non-empty, without whitespace or ` + "`@`" + `. Roles are
one of ` + "`custom`, `infrastructure` or `post-processor`" + `.`,
	}

	ambiguousComponentIssue = &Issue{
		id:    AmbiguousComponentId,
		match: is(registry.ErrAmbiguousComponent),
		mdMsg: `
# More than one component matches a type lookup

A lookup by type found several visible candidates that tie: they share the
lowest priority, or several are marked primary and none has a priority.

## Tie breakers, in order
1. A single candidate defined in the asking module
2. A single candidate marked primary
3. The lowest priority value among the primaries
4. The lowest priority value among all candidates

## Things you can try
- Mark one definition primary
- Give the definitions distinct priorities
- Look the component up by name instead`,
	}

	unresolvedComponentIssue = &Issue{
		id:    UnresolvedComponentId,
		match: is(registry.ErrUnresolvedComponent),
		mdMsg: `
# No visible component matches a type lookup

Modules only see components exposed by modules bootstrapped before them.
The lookup also fails when several candidates are visible and none is
local, primary or prioritized.

## Things you can try
- Add the providing module to the ` + "`requires`" + ` list so it bootstraps first
- Widen the providing module's ` + "`expose`" + ` policy
- Mark one of several candidates primary or give it a priority`,
	}

	componentNotFoundIssue = &Issue{
		id:    ComponentNotFoundId,
		match: is(container.ErrComponentNotFound),
		mdMsg: `
# No component is registered under this name

Names are looked up in the module's own container first, then among the
exposed names of earlier modules. A name that collided with an earlier
export is published under its qualified form ` + "`scope.module@name`" + `.`,
	}

	circularReferenceIssue = &Issue{
		id:    CircularReferenceId,
		match: is(container.ErrCircularReference),
		mdMsg: `
# Component factories reference each other in a cycle

A factory asked, directly or indirectly, for the component it is building.
Break the cycle by injecting a provider function or by splitting the
component.`,
	}

	stillReferencedIssue = &Issue{
		id:    StillReferencedId,
		match: is(registry.ErrStillReferenced),
		mdMsg: `
# A module cannot be removed while others depend on it

Tear modules down in reverse bootstrap order, or remove the dependent
modules first.`,
	}

	manifestInvalidIssue = &Issue{
		id:    ManifestInvalidId,
		match: anyOf(manifest.ErrInvalidManifest, manifest.ErrUnsupportedFormat, cueutil.ErrValidation),
		mdMsg: `
# The manifest could not be loaded

Manifests are read from ` + "`.cue`, `.yaml`, `.yml`, `.toml` or `.hcl`" + ` files.

## Example
~~~cue
scope_id: "shop"
modules: [
	{name: "log", role: "infrastructure"},
	{name: "core", expose: all: true},
	{name: "web", requires: ["core"], optional: ["cache"]},
]
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		match: is(ErrConfig),
		mdMsg: `
# The configuration could not be loaded

Configuration is read from ` + "`config.cue`" + ` in the config directory and
can be overridden with ` + "`BOOTKIT_*`" + ` environment variables or a ` + "`.env`" + ` file.

~~~
$ bootkit config show
~~~`,
	}

	lockUnavailableIssue = &Issue{
		id: LockUnavailableId,
		match: func(err error) bool {
			var le *lock.LockError
			return errors.As(err, &le)
		},
		mdMsg: `
# The bootstrap lock could not be acquired or released

Installer phases run under a lock shared by every instance of the
application.

## Things you can try
- Check that the lock backend is reachable
- Probe the configured backend:
~~~
$ bootkit lock probe
~~~`,
	}

	issues = []*Issue{
		missingDependencyIssue,
		disabledDependencyIssue,
		dependencyCycleIssue,
		orderVerificationIssue,
		invalidModuleIssue,
		ambiguousComponentIssue,
		unresolvedComponentIssue,
		componentNotFoundIssue,
		circularReferenceIssue,
		stillReferencedIssue,
		manifestInvalidIssue,
		configLoadFailedIssue,
		lockUnavailableIssue,
	}

	// ErrConfig marks configuration loading failures.
	ErrConfig = errors.New("configuration error")
)

func (i *Issue) Id() Id { return i.id }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// Title returns the text of the message's first heading.
func (i *Issue) Title() string {
	for line := range strings.Lines(string(i.mdMsg)) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return ""
}

func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// Render renders the issue as terminal Markdown using the glamour style at
// stylePath ("dark", "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- " + string(link) + "\n"
		}
	}
	return render(md, stylePath)
}

// Values returns every issue ordered by Id.
func Values() []*Issue {
	out := slices.Clone(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the issue with id, or nil.
func Get(id Id) *Issue {
	idx := slices.IndexFunc(issues, func(i *Issue) bool { return i.id == id })
	if idx < 0 {
		return nil
	}
	return issues[idx]
}

// Classify returns the first issue, in Id order, that err is an instance
// of. Dependency problems are checked before the wrappers that carry them.
func Classify(err error) (*Issue, bool) {
	if err == nil {
		return nil, false
	}
	for _, i := range issues {
		if i.match(err) {
			return i, true
		}
	}
	return nil, false
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func anyOf(targets ...error) func(error) bool {
	return func(err error) bool {
		return slices.ContainsFunc(targets, func(t error) bool { return errors.Is(err, t) })
	}
}
