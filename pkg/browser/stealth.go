package browser

// Stealth supplies the anti-automation tweaks applied at launch.
type Stealth interface {
	// LaunchArgs are extra browser switches
	LaunchArgs() []string

	// IgnoredDefaultArgs are driver default switches to drop
	IgnoredDefaultArgs() []string

	// InitScripts run before any page script
	InitScripts() []string
}

// BasicStealth turns off the Blink automation flag and hides navigator.webdriver.
type BasicStealth struct{}

const hideWebdriverScript = `(() => {
  Object.defineProperty(Navigator.prototype, 'webdriver', { get: () => undefined, configurable: true });
  if (!window.chrome) {
    window.chrome = { runtime: {} };
  }
})();`

func (BasicStealth) LaunchArgs() []string {
	return []string{"--disable-blink-features=AutomationControlled"}
}

func (BasicStealth) IgnoredDefaultArgs() []string {
	return []string{"--enable-automation"}
}

func (BasicStealth) InitScripts() []string {
	return []string{hideWebdriverScript}
}

// NoStealth launches the browser as the driver configures it.
type NoStealth struct{}

func (NoStealth) LaunchArgs() []string         { return nil }
func (NoStealth) IgnoredDefaultArgs() []string { return nil }
func (NoStealth) InitScripts() []string        { return nil }
