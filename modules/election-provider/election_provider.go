package electionprovider

import (
	"log/slog"

	"staking-timetravel/lib/logger"
	"staking-timetravel/modules/common/params"
	runtimeprofile "staking-timetravel/modules/common/runtime-profile"

	"github.com/moznion/go-optional"
)

// Provider builds snapshots and runs elections over a chain state, bounded
// by the chain's runtime profile.
type Provider struct {
	profile     runtimeprofile.Profile
	coefficient int
	log         *slog.Logger
}

func New(profile runtimeprofile.Profile, coefficient int, log ...*slog.Logger) *Provider {
	if coefficient < 1 {
		coefficient = params.NPOS_MAX_ITERATIONS_COEFFICIENT
	}
	var l *slog.Logger
	if len(log) > 0 {
		l = log[0]
	}
	return &Provider{
		profile:     profile,
		coefficient: coefficient,
		log:         logger.Service(l, "election-provider").With("chain", profile.Name()),
	}
}

func (p *Provider) Profile() runtimeprofile.Profile {
	return p.profile
}

func (p *Provider) maxElectingVoters() optional.Option[int] {
	if p.profile.MaxElectingVoters().IsNone() {
		return optional.None[int]()
	}
	return optional.Some(int(p.profile.MaxElectingVoters().Unwrap()))
}
