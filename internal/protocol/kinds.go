package protocol

import "fmt"

type (
	Kind  int
	Range uint8
)

const (
	// Ranges.
	Regular Range = iota
	Replaceable
	Ephemeral
	ParameterizedReplaceable
	Custom
)

const (
	KindProfileMetadata        Kind = 0
	KindTextNote               Kind = 1
	KindRecommendRelay         Kind = 2
	KindContactList            Kind = 3
	KindEncryptedDirectMessage Kind = 4
	KindDeletion               Kind = 5
	KindRepost                 Kind = 6
	KindReaction               Kind = 7
	KindChannelCreation        Kind = 40
	KindChannelMetadata        Kind = 41
	KindChannelMessage         Kind = 42
	KindChannelHideMessage     Kind = 43
	KindChannelMuteUser        Kind = 44
	KindZapRequest             Kind = 9734
	KindZap                    Kind = 9735
	KindMuteList               Kind = 10000
	KindRelayListMetadata      Kind = 10002
	KindClientAuthentication   Kind = 22242
	KindNostrConnect           Kind = 24133
	KindCategorizedPeopleList  Kind = 30000
	KindLongFormContent        Kind = 30023
	KindApplicationSpecific    Kind = 30078
)

// UnmarshalJSON accepts any integral JSON number, so 1.0 decodes as kind 1.
func (k *Kind) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	n, err := parseInteger(data)
	if err != nil {
		return fmt.Errorf("kind: %w", err)
	}
	*k = Kind(n)
	return nil
}

func (k Kind) IsRegular() bool {
	return (1000 <= k && k < 10000) || (4 <= k && k < 45) || k == 1 || k == 2
}

func (k Kind) IsReplaceable() bool {
	return (10000 <= k && k < 20000) || k == 0 || k == 3
}

func (k Kind) IsEphemeral() bool {
	return 20000 <= k && k < 30000
}

func (k Kind) IsParameterizedReplaceable() bool {
	return 30000 <= k && k < 40000
}

// Range returns the NIP-01 range k belongs to. Kinds outside every
// reserved range are Custom.
func (k Kind) Range() Range {
	switch {
	case k.IsRegular():
		return Regular
	case k.IsReplaceable():
		return Replaceable
	case k.IsEphemeral():
		return Ephemeral
	case k.IsParameterizedReplaceable():
		return ParameterizedReplaceable
	default:
		return Custom
	}
}

func (r Range) String() string {
	switch r {
	case Regular:
		return "regular"
	case Replaceable:
		return "replaceable"
	case Ephemeral:
		return "ephemeral"
	case ParameterizedReplaceable:
		return "parameterized-replaceable"
	default:
		return "custom"
	}
}
