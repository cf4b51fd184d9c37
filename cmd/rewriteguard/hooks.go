package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	hooksDryRun bool
	hooksForce  bool
)

// hookMatcher selects the file-modifying tools the guard evaluates.
const hookMatcher = "Write|Edit|MultiEdit"

// HookEntry represents a single hook command in Claude settings.
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup represents a hook group with a tool matcher and a hooks array.
// Claude Code format: {"matcher": "Write|Edit", "hooks": [{"type": "command", "command": "..."}]}
type HookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []HookEntry `json:"hooks"`
}

// guardHookEvents returns the hook groups this binary installs, per event.
func guardHookEvents() map[string]HookGroup {
	return map[string]HookGroup{
		"PreToolUse": {
			Matcher: hookMatcher,
			Hooks:   []HookEntry{{Type: "command", Command: "rewriteguard check"}},
		},
		"PostToolUse": {
			Matcher: hookMatcher,
			Hooks:   []HookEntry{{Type: "command", Command: "rewriteguard tidy"}},
		},
	}
}

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the Claude Code hook configuration",
	Long: `Manage the rewriteguard entries in ~/.claude/settings.json.

Subcommands:
  install    Add the PreToolUse and PostToolUse hooks
  show       Display the current hook configuration
  uninstall  Remove rewriteguard-managed hooks

Hooks belonging to other tools are always preserved.`,
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install hooks to Claude Code settings",
	Long: `Install rewriteguard into ~/.claude/settings.json.

This command:
  1. Reads existing settings.json (if any)
  2. Merges the rewriteguard hooks with existing configuration
  3. Creates a backup of the original settings
  4. Writes the updated configuration

Use --force to overwrite existing rewriteguard hooks.`,
	RunE: runHooksInstall,
}

var hooksShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current hook configuration",
	RunE:  runHooksShow,
}

var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove rewriteguard hooks from Claude Code settings",
	RunE:  runHooksUninstall,
}

func init() {
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksShowCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)

	hooksInstallCmd.Flags().BoolVar(&hooksDryRun, "dry-run", false, "Show what would be installed without making changes")
	hooksInstallCmd.Flags().BoolVar(&hooksForce, "force", false, "Overwrite existing rewriteguard hooks")
	hooksUninstallCmd.Flags().BoolVar(&hooksDryRun, "dry-run", false, "Show what would be removed without making changes")
}

// settingsPath returns the Claude Code settings file location.
func settingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// loadSettings reads settings.json as a raw map so unknown keys survive a
// round trip. A missing file yields an empty map.
func loadSettings(path string) (map[string]any, error) {
	raw := make(map[string]any)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return raw, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse existing settings: %w", err)
	}
	return raw, nil
}

// isGuardManagedCommand reports whether a hook command belongs to this tool.
func isGuardManagedCommand(cmd string) bool {
	return strings.Contains(cmd, "rewriteguard ")
}

// rawGroupIsGuardManaged checks whether a raw hook group contains a
// rewriteguard command.
func rawGroupIsGuardManaged(group map[string]any) bool {
	hooks, ok := group["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		entry, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := entry["command"].(string); ok && isGuardManagedCommand(cmd) {
			return true
		}
	}
	return false
}

// filterForeignGroups returns the hook groups for event that do not belong
// to rewriteguard.
func filterForeignGroups(hooksMap map[string]any, event string) []map[string]any {
	result := make([]map[string]any, 0)
	groups, ok := hooksMap[event].([]any)
	if !ok {
		return result
	}
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		if !rawGroupIsGuardManaged(group) {
			result = append(result, group)
		}
	}
	return result
}

// guardInstalled reports whether any event already carries rewriteguard hooks.
func guardInstalled(hooksMap map[string]any) bool {
	for event := range guardHookEvents() {
		groups, ok := hooksMap[event].([]any)
		if !ok {
			continue
		}
		for _, g := range groups {
			if group, ok := g.(map[string]any); ok && rawGroupIsGuardManaged(group) {
				return true
			}
		}
	}
	return false
}

// groupToMap converts a HookGroup to a map for JSON serialization alongside
// foreign raw groups.
func groupToMap(g HookGroup) map[string]any {
	hooks := make([]map[string]any, len(g.Hooks))
	for i, h := range g.Hooks {
		entry := map[string]any{
			"type":    h.Type,
			"command": h.Command,
		}
		if h.Timeout > 0 {
			entry["timeout"] = h.Timeout
		}
		hooks[i] = entry
	}
	result := map[string]any{"hooks": hooks}
	if g.Matcher != "" {
		result["matcher"] = g.Matcher
	}
	return result
}

// mergeGuardHooks rewrites hooksMap so each guard event holds the foreign
// groups plus the guard's own group. Returns the events touched.
func mergeGuardHooks(hooksMap map[string]any) []string {
	events := make([]string, 0, 2)
	for event, group := range guardHookEvents() {
		groups := filterForeignGroups(hooksMap, event)
		groups = append(groups, groupToMap(group))
		hooksMap[event] = groups
		events = append(events, event)
	}
	return events
}

// backupSettings copies the current settings file aside before rewriting it.
func backupSettings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	fmt.Printf("Backed up existing settings to %s\n", backupPath)
	return nil
}

// writeSettings serializes raw settings back to disk.
func writeSettings(path string, raw map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create .claude directory: %w", err)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// cloneHooksMap copies the existing hooks section so the original map is not
// mutated before a dry run prints it.
func cloneHooksMap(raw map[string]any) map[string]any {
	hooksMap := make(map[string]any)
	if existing, ok := raw["hooks"].(map[string]any); ok {
		for k, v := range existing {
			hooksMap[k] = v
		}
	}
	return hooksMap
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	raw, err := loadSettings(path)
	if err != nil {
		return err
	}

	hooksMap := cloneHooksMap(raw)
	if guardInstalled(hooksMap) && !hooksForce {
		fmt.Println("rewriteguard hooks already installed. Use --force to overwrite.")
		return nil
	}

	events := mergeGuardHooks(hooksMap)
	raw["hooks"] = hooksMap

	if hooksDryRun {
		fmt.Println("[dry-run] Would write to", path)
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal settings: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if err := backupSettings(path); err != nil {
		return err
	}
	if err := writeSettings(path, raw); err != nil {
		return err
	}

	fmt.Printf("Installed rewriteguard hooks to %s\n", path)
	for _, event := range events {
		fmt.Printf("  %s: matcher %q\n", event, hookMatcher)
	}
	return nil
}

func runHooksShow(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	raw, err := loadSettings(path)
	if err != nil {
		return err
	}

	hooksMap, ok := raw["hooks"].(map[string]any)
	if !ok || len(hooksMap) == 0 {
		fmt.Println("No hooks configured in", path)
		fmt.Println("Run 'rewriteguard hooks install' to set up hooks.")
		return nil
	}

	for event := range guardHookEvents() {
		groups, _ := hooksMap[event].([]any)
		managed := 0
		for _, g := range groups {
			if group, ok := g.(map[string]any); ok && rawGroupIsGuardManaged(group) {
				managed++
			}
		}
		if managed > 0 {
			fmt.Printf("  ✓ %-12s %d rewriteguard group(s)\n", event, managed)
		} else {
			fmt.Printf("  - %-12s not installed\n", event)
		}
	}
	return nil
}

func runHooksUninstall(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	raw, err := loadSettings(path)
	if err != nil {
		return err
	}

	hooksMap := cloneHooksMap(raw)
	if !guardInstalled(hooksMap) {
		fmt.Println("No rewriteguard hooks found.")
		return nil
	}

	for event := range guardHookEvents() {
		foreign := filterForeignGroups(hooksMap, event)
		if len(foreign) == 0 {
			delete(hooksMap, event)
		} else {
			hooksMap[event] = foreign
		}
	}
	raw["hooks"] = hooksMap

	if hooksDryRun {
		fmt.Println("[dry-run] Would remove rewriteguard hooks from", path)
		return nil
	}

	if err := backupSettings(path); err != nil {
		return err
	}
	if err := writeSettings(path, raw); err != nil {
		return err
	}
	fmt.Printf("Removed rewriteguard hooks from %s\n", path)
	return nil
}
