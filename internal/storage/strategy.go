package storage

// Payload ceilings per environment class. Mobile platforms enforce much
// smaller and less reliable durable quotas, so the ceiling shrinks with
// the platform.
const (
	ceilingConstrained   = 1 << 20  // 1 MiB
	ceilingMobileDefault = 4 << 20  // 4 MiB
	ceilingMobileLarge   = 8 << 20  // 8 MiB
	ceilingDesktop       = 40 << 20 // 40 MiB
)

// Strategy orders storage tiers from preferred to last resort and caps the
// payload size a single save may carry.
type Strategy struct {
	Primary         Kind
	Fallbacks       []Kind
	MaxPayloadBytes int
}

// Order returns the primary tier followed by the fallbacks.
func (s Strategy) Order() []Kind {
	return append([]Kind{s.Primary}, s.Fallbacks...)
}

// Recommend picks a tier ordering for the probed environment. Rules are
// checked most-specific first:
//
//  1. Mobile platform whose durable tier is missing or read-only: only the
//     ephemeral tier can be trusted; memory and the minimal file back it up.
//  2. Mobile platform with a working durable tier: durable first, with the
//     4 or 8 MiB ceiling depending on the OS family.
//  3. Desktop: durable first with the large ceiling, structured store as
//     the first fallback.
func Recommend(env Environment) Strategy {
	if env.Mobile && (!env.DurableOK || env.ReadOnlyProfile) {
		return Strategy{
			Primary:         KindEphemeral,
			Fallbacks:       []Kind{KindMemory, KindMinimal},
			MaxPayloadBytes: ceilingConstrained,
		}
	}

	if env.Mobile {
		ceiling := ceilingMobileDefault
		if env.OS == "android" {
			ceiling = ceilingMobileLarge
		}
		return Strategy{
			Primary:         KindDurable,
			Fallbacks:       []Kind{KindEphemeral, KindStructured, KindMinimal},
			MaxPayloadBytes: ceiling,
		}
	}

	return Strategy{
		Primary:         KindDurable,
		Fallbacks:       []Kind{KindStructured, KindEphemeral, KindMinimal},
		MaxPayloadBytes: ceilingDesktop,
	}
}
