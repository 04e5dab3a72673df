package runtimeprofile

import (
	"fmt"
	"strings"

	"github.com/moznion/go-optional"
)

// Profile carries the per chain election bounds and token metadata that an
// analysis run needs. It is passed explicitly into every operation.
type Profile interface {
	Name() string
	Token() string
	Decimals() uint8
	SS58Prefix() uint16
	MaxElectingVoters() optional.Option[uint32]
	MaxElectableTargets() uint32
}

type profile struct {
	name                string
	token               string
	decimals            uint8
	ss58                uint16
	maxElectingVoters   optional.Option[uint32]
	maxElectableTargets uint32
}

func (p *profile) Name() string {
	return p.name
}

func (p *profile) Token() string {
	return p.token
}

func (p *profile) Decimals() uint8 {
	return p.decimals
}

func (p *profile) SS58Prefix() uint16 {
	return p.ss58
}

func (p *profile) MaxElectingVoters() optional.Option[uint32] {
	return p.maxElectingVoters
}

func (p *profile) MaxElectableTargets() uint32 {
	return p.maxElectableTargets
}

func PolkadotProfile() Profile {
	return &profile{
		name:                "polkadot",
		token:               "DOT",
		decimals:            10,
		ss58:                0,
		maxElectingVoters:   optional.Some[uint32](22_500),
		maxElectableTargets: 1<<16 - 1,
	}
}

func KusamaProfile() Profile {
	return &profile{
		name:                "kusama",
		token:               "KSM",
		decimals:            12,
		ss58:                2,
		maxElectingVoters:   optional.Some[uint32](12_500),
		maxElectableTargets: 1<<16 - 1,
	}
}

func WestendProfile() Profile {
	return &profile{
		name:                "westend",
		token:               "WND",
		decimals:            12,
		ss58:                42,
		maxElectingVoters:   optional.Some[uint32](22_500),
		maxElectableTargets: 1<<16 - 1,
	}
}

// Custom builds a profile with explicit bounds, mostly for tests and dev chains.
func Custom(name string, maxElectingVoters optional.Option[uint32], maxElectableTargets uint32) Profile {
	return &profile{
		name:                name,
		token:               "UNIT",
		decimals:            12,
		ss58:                42,
		maxElectingVoters:   maxElectingVoters,
		maxElectableTargets: maxElectableTargets,
	}
}

var ErrUnknownChain = fmt.Errorf("unknown chain")

func FromChain(chain string) (Profile, error) {
	switch strings.ToLower(chain) {
	case "polkadot":
		return PolkadotProfile(), nil
	case "kusama":
		return KusamaProfile(), nil
	case "westend":
		return WestendProfile(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, chain)
	}
}
