// Package file keeps user-editable state under ~/.taxonomist: settings in
// config.toml (ConfigStore, with environment overrides) and prompt
// templates in prompts/ (PromptStore, reloaded on change).
package file
