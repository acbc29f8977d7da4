package testsupport

import (
	_ "embed"

	"github.com/kaliklipper/ism-go/internal/action"
	"github.com/kaliklipper/ism-go/internal/pack"
)

//go:embed schema.json
var schemaDocument []byte

//go:embed data.json
var dataDocument []byte

// Provider bundles the test-support actions into a pack.Provider. Directory
// paths come from configuration (the "test.support.*" extra keys) and
// are captured by the factory closures at construction time, since
// action.Base itself carries no config reference.
type Provider struct {
	Inbound  string
	Outbound string
	Archive  string
}

// New builds a test-support Provider rooted at the given directories.
func New(inbound, outbound, archive string) *Provider {
	return &Provider{Inbound: inbound, Outbound: outbound, Archive: archive}
}

func (p *Provider) ID() string { return "test-support" }

func (p *Provider) Actions() map[string]pack.Factory {
	return map[string]pack.Factory{
		"ActionBeforeTestSupport": func(deps action.Base) action.Interface {
			return NewActionBeforeTestSupport(deps, p.Inbound, p.Outbound, p.Archive)
		},
		"ActionInboundTestMsg": func(deps action.Base) action.Interface {
			return NewActionInboundTestMsg(deps, p.Inbound, p.Archive)
		},
		"ActionOutboundTestMsg": func(deps action.Base) action.Interface {
			return NewActionOutboundTestMsg(deps, p.Outbound)
		},
		"ActionRunSqlQuery": func(deps action.Base) action.Interface {
			return NewActionRunSqlQuery(deps)
		},
	}
}

func (p *Provider) Schema() []byte { return schemaDocument }
func (p *Provider) Data() []byte   { return dataDocument }
