package policy

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig is the on-disk shape of a FilePolicy, decoded/encoded with
// BurntSushi/toml.
type FileConfig struct {
	Display      DisplayConfig                `toml:"display"`
	VirtualKeys  map[string][]VirtualKeyTOML  `toml:"virtual_keys"`
	Excluded     []string                     `toml:"excluded_devices"`
	WakeKeyCodes []int32                      `toml:"wake_key_codes"`
	Filters      FilterConfig                 `toml:"filters"`
}

// DisplayConfig is the statically-configured display fallback used when no
// live display backend is wired in. Width/Height <= 0 means "unknown".
type DisplayConfig struct {
	Width       int32 `toml:"width"`
	Height      int32 `toml:"height"`
	Orientation int32 `toml:"orientation"`
}

// FilterConfig toggles the optional touch filters.
type FilterConfig struct {
	BadTouch  bool `toml:"bad_touch"`
	JumpyTouch bool `toml:"jumpy_touch"`
}

// VirtualKeyTOML is the on-disk shape of one VirtualKeyDefinition.
type VirtualKeyTOML struct {
	ScanCode int32  `toml:"scan_code"`
	KeyCode  int32  `toml:"key_code"`
	Flags    uint32 `toml:"flags"`
	CenterX  int32  `toml:"center_x"`
	CenterY  int32  `toml:"center_y"`
	Width    int32  `toml:"width"`
	Height   int32  `toml:"height"`
}

// DefaultFileConfig returns permissive defaults: no exclusions, no
// virtual keys, filters off, display unknown.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Display:      DisplayConfig{Width: 0, Height: 0, Orientation: 0},
		VirtualKeys:  map[string][]VirtualKeyTOML{},
		Excluded:     []string{},
		WakeKeyCodes: []int32{26}, // KEYCODE_POWER
		Filters:      FilterConfig{BadTouch: false, JumpyTouch: false},
	}
}

// LoadFileConfig reads configPath, writing and returning
// DefaultFileConfig if the file does not yet exist.
func LoadFileConfig(configPath string) (*FileConfig, error) {
	cfg := DefaultFileConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return cfg, err
		}
		if err := SaveFileConfig(configPath, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveFileConfig writes cfg to configPath as TOML, creating the parent
// directory if needed.
func SaveFileConfig(configPath string, cfg *FileConfig) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// FilePolicy is the default Policy: a TOML file for static configuration,
// global wake-on-power-key interception, and no further shortcut
// handling.
type FilePolicy struct {
	mu  sync.RWMutex
	cfg *FileConfig

	wakeKeys map[int32]bool
}

// NewFilePolicy loads configPath (creating it with defaults if absent) and
// returns a ready FilePolicy.
func NewFilePolicy(configPath string) (*FilePolicy, error) {
	cfg, err := LoadFileConfig(configPath)
	if err != nil {
		return nil, err
	}
	p := &FilePolicy{cfg: cfg}
	p.rebuildIndexes()
	return p, nil
}

func (p *FilePolicy) rebuildIndexes() {
	p.wakeKeys = make(map[int32]bool, len(p.cfg.WakeKeyCodes))
	for _, kc := range p.cfg.WakeKeyCodes {
		p.wakeKeys[kc] = true
	}
}

// GetDisplayInfo returns the statically configured display fallback.
func (p *FilePolicy) GetDisplayInfo() (width, height, orientation int32, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	d := p.cfg.Display
	if d.Width <= 0 || d.Height <= 0 {
		return 0, 0, 0, false
	}
	return d.Width, d.Height, d.Orientation, true
}

// GetVirtualKeyDefinitions returns the TOML-configured bezel keys for
// deviceName.
func (p *FilePolicy) GetVirtualKeyDefinitions(deviceName string) []VirtualKeyDefinition {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := p.cfg.VirtualKeys[deviceName]
	if len(entries) == 0 {
		return nil
	}
	out := make([]VirtualKeyDefinition, len(entries))
	for i, e := range entries {
		out[i] = VirtualKeyDefinition{
			ScanCode: e.ScanCode,
			KeyCode:  e.KeyCode,
			Flags:    e.Flags,
			CenterX:  e.CenterX,
			CenterY:  e.CenterY,
			Width:    e.Width,
			Height:   e.Height,
		}
	}
	return out
}

// GetExcludedDeviceNames returns the configured exclude list.
func (p *FilePolicy) GetExcludedDeviceNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.cfg.Excluded))
	copy(out, p.cfg.Excluded)
	return out
}

// FilterTouchEvents reports whether the bad-touch filter is enabled.
func (p *FilePolicy) FilterTouchEvents() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.Filters.BadTouch
}

// FilterJumpyTouchEvents reports whether the jumpy-touch filter is enabled.
func (p *FilePolicy) FilterJumpyTouchEvents() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.Filters.JumpyTouch
}

// InterceptKey wakes the device (ActionWokeHere) on a configured wake key
// and otherwise dispatches every key unconditionally.
func (p *FilePolicy) InterceptKey(when time.Duration, deviceID int32, down bool, keyCode, scanCode int32, flags uint32) ActionBits {
	p.mu.RLock()
	defer p.mu.RUnlock()

	actions := ActionDispatch
	if down && p.wakeKeys[keyCode] {
		actions |= ActionWokeHere | ActionBrightHere
	}
	return actions
}

// InterceptTouch always dispatches; FilePolicy has no global touch
// shortcuts.
func (p *FilePolicy) InterceptTouch(when time.Duration) ActionBits {
	return ActionDispatch
}

// InterceptSwitch does nothing; FilePolicy has no switch-driven behavior.
func (p *FilePolicy) InterceptSwitch(when time.Duration, code, value int32) ActionBits {
	return ActionDispatch
}

// InterceptTrackball always dispatches; FilePolicy has no trackball
// navigation shortcuts.
func (p *FilePolicy) InterceptTrackball(when time.Duration, downChanged, down, deltaChanged bool) ActionBits {
	return ActionDispatch
}

// VirtualKeyDownFeedback is a no-op; there is no haptics backend wired in.
func (p *FilePolicy) VirtualKeyDownFeedback() {}

// SetVirtualKeys replaces the configured bezel keys for deviceName and
// persists the change to disk.
func (p *FilePolicy) SetVirtualKeys(configPath, deviceName string, keys []VirtualKeyTOML) error {
	p.mu.Lock()
	p.cfg.VirtualKeys[deviceName] = keys
	cfgCopy := *p.cfg
	p.mu.Unlock()

	return SaveFileConfig(configPath, &cfgCopy)
}
