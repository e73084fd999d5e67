package studio

import (
	"Easel/core"
	"Easel/storage"
	"strings"
)

// credential is the key resolved for a single generation attempt. The manual
// flag records which key was in use so failures can point the user at the
// right fix.
type credential struct {
	key    string
	manual bool
}

// resolveKey picks the credential for one attempt: a non-blank manual key
// when the user enabled it, otherwise the ambient key from the environment.
func (s *Studio) resolveKey(settings *storage.Settings) (credential, error) {
	if settings.UseManualKey {
		if key := strings.TrimSpace(settings.ManualKey); key != "" {
			return credential{key: key, manual: true}, nil
		}
	}
	if s.conf.GeminiApiKey != "" {
		return credential{key: s.conf.GeminiApiKey}, nil
	}
	return credential{}, core.ErrNoCredential
}
