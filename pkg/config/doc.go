/*
Package config loads the SafePDF application configuration.

	        +--------------+
	        |  config.yaml |
	        |  .json .hcl  |
	        +------+-------+
	               |  Parse (by extension)
	               v
	        +--------------+      +-------------------+
	        |    Config    +----->| RegistryDefaults  |
	        |  (Validate)  |      | controller opts   |
	        +--------------+      | license / update  |
	                              +-------------------+

🎯 Purpose:
- One file configures operation defaults, the controller, licensing, the
  update check and logging
- Every section is optional; unset values fall back to defaults

🔄 Flow:
1. Load reads the file (a missing file means defaults)
2. Parse decodes JSON, YAML or HCL with unknown keys rejected
3. Validate fills defaults, normalises and rejects bad values

🔍 Example:

	defaults:
	  quality: high
	  dpi: 300
	controller:
	  cancel_poll_interval: 100ms
	log:
	  level: debug

The same in HCL:

	defaults {
	  quality = "high"
	  dpi     = 300
	}
	log {
	  dir = "${home}/.safepdf"
	}
*/
package config
