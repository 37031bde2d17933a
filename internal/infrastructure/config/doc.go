// Package config loads configs/config.yaml.
//
// Values come from built-in defaults, then the YAML file, then
// CIRCUITSTASH_* environment variables. Unknown YAML keys are an error, and
// Validate reports all problems in one go.
//
// The token signing secret is not part of the file; only its path
// (security.secret_file) is configured. The seed admin password is best
// supplied through CIRCUITSTASH_SEED_ADMIN_PASSWORD, or left empty to have
// one generated.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
package config
