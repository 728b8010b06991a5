/*
Package config holds the configuration value passed to the item store, the
tables file consumed by the CLI, and logger construction.

	region: us-east-1
	endpoint: http://localhost:8000
	tables:
	  audit_log:
	    region: eu-west-1
	logging:
	  enabled: true
	  level: debug
	  format: console

Load reads the YAML file, then overlays ITEMSTORE_REGION, ITEMSTORE_ENDPOINT,
AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_PROFILE, optionally after
loading .env files. Validation runs structural tag checks first and then the
cross-field rules; failures are errors.ValidationError values.
*/
package config
