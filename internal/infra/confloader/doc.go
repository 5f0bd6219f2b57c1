// Package confloader loads layered configuration with koanf.
//
// Sources, from lowest to highest priority:
//
//  1. Defaults already present in the target struct
//  2. A YAML file
//  3. Environment variables (VFTLEDGER_ prefix)
//  4. A flag map supplied by the CLI
//
// Environment keys use a double underscore between nesting levels so a
// single underscore can stay inside a key name:
//
//	VFTLEDGER_STORAGE__DATA_DIR=/srv/ledger  ->  storage.data_dir
//
// Watcher reports changes of the configuration file through fsnotify.
package confloader
