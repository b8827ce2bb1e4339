package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against its struct tags and the
// cross-field rules the tags cannot express.
//
// Validation never mutates the configuration; normalization is the job
// of ApplyDefaults.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	// Rules spanning more than one field.
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is configured")
	}
	if cfg.Journal.Backend == "badger" && cfg.Journal.Dir == "" {
		return fmt.Errorf("journal backend 'badger' requires journal.dir")
	}
	if cfg.UFS.Type == "fs" && cfg.UFS.Path == "" {
		return fmt.Errorf("under-store type 'fs' requires ufs.path")
	}
	if cfg.UFS.Type == "s3" && cfg.UFS.S3.Bucket == "" {
		return fmt.Errorf("under-store type 's3' requires ufs.s3.bucket")
	}

	return nil
}

// formatValidationErrors renders validator errors with the failing
// field path and the tag that rejected it, e.g.
// "Logging.Level: failed 'oneof' validation".
func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Strip the leading "Config." from the namespace.
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' validation", field, fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
