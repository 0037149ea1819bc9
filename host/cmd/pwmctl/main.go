// pwmctl configures TCPWM counters and the low-voltage detector of a psoc6
// board running the firmware, or of the in-process simulator.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/Sirupsen/logrus.v0"

	"psocpwm/config"
	"psocpwm/host/mcu"
	"psocpwm/host/serial"
	"psocpwm/host/sim"
	"psocpwm/tcpwm"
)

type (
	CLI struct {
		Apply   Apply   `cmd:"" help:"Apply the counters and LVD settings of a config file."`
		Deinit  Deinit  `cmd:"" help:"Return the counters of a config file to reset state."`
		Query   Query   `cmd:"" help:"Print the registers of a counter."`
		Trigger Trigger `cmd:"" help:"Send a trigger command to a counter."`
		Enable  Enable  `cmd:"" help:"Enable or disable a counter."`
		Sleep   Sleep   `cmd:"" help:"Run the deep sleep callbacks and enter deep sleep."`
		Dict    Dict    `cmd:"" help:"Print the firmware dictionary."`

		Device   string `name:"device" short:"d" help:"${device_help}" default:"/dev/ttyACM0"`
		Baud     int    `name:"baud" short:"b" help:"Serial baud rate." default:"115200"`
		Sim      bool   `name:"sim" help:"${sim_help}"`
		LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)." default:"info" enum:"debug,info,warn,error"`
	}

	Apply struct {
		Path string `arg:"" name:"config.toml" type:"existingfile"`
	}

	Deinit struct {
		Path string `arg:"" name:"config.toml" type:"existingfile"`
	}

	Query struct {
		Counter uint8 `arg:"" name:"counter"`
	}

	Trigger struct {
		Counter uint8  `arg:"" name:"counter"`
		Command string `arg:"" name:"command" enum:"start,reload,stop,swap"`
	}

	Enable struct {
		Counter uint8 `arg:"" name:"counter"`
		Off     bool  `name:"off" help:"Disable instead."`
	}

	Sleep struct{}

	Dict struct {
		Raw bool `name:"raw" help:"Print the JSON as received."`
	}
)

var vars = kong.Vars{
	"device_help": "Serial device of the board.",
	"sim_help":    "Talk to a simulated MCU instead of a board.",
}

func main() {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("pwmctl"),
		kong.Description("Configure PSoC 6 TCPWM counters over the firmware serial link."),
		kong.UsageOnError(),
		vars)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	level, err := logrus.ParseLevel(cli.LogLevel)
	parser.FatalIfErrorf(err)
	logrus.SetLevel(level)

	m, err := cli.connect()
	if err != nil {
		logrus.WithError(err).Fatal("connect")
	}
	defer m.Close()

	if err := m.RetrieveDictionary(); err != nil {
		logrus.WithError(err).Fatal("retrieve dictionary")
	}
	ctx.FatalIfErrorf(ctx.Run(m))
}

func (c *CLI) connect() (*mcu.MCU, error) {
	if c.Sim {
		return mcu.ConnectPort(sim.New(tcpwm.TCPWM0)), nil
	}
	cfg := serial.DefaultConfig(c.Device)
	cfg.Baud = c.Baud
	return mcu.Connect(cfg)
}

func (a *Apply) Run(m *mcu.MCU) error {
	cfg, err := config.Load(a.Path)
	if err != nil {
		return err
	}
	if err := checkCounters(m, cfg); err != nil {
		return err
	}
	for _, c := range cfg.Counters {
		if err := m.ApplyPWM(c.Index, &c.PWM); err != nil {
			return err
		}
		fmt.Printf("counter %d: %v\n", c.Index, c.PWM.Mode)
	}
	if cfg.LVD != nil {
		st, err := m.ConfigLVD(cfg.LVD.Threshold, cfg.LVD.Enable)
		if err != nil {
			return err
		}
		fmt.Printf("lvd: %v enabled=%v ok=%v\n", st.Threshold, st.Enabled, st.Ok)
	}
	return nil
}

func (d *Deinit) Run(m *mcu.MCU) error {
	cfg, err := config.Load(d.Path)
	if err != nil {
		return err
	}
	for _, c := range cfg.Counters {
		if err := m.DeinitPWM(c.Index); err != nil {
			return err
		}
	}
	return nil
}

// checkCounters rejects a config naming counters the board does not have
// before anything is written.
func checkCounters(m *mcu.MCU, cfg *config.Config) error {
	v, ok := m.Constant("TCPWM_COUNTERS")
	if !ok {
		return nil
	}
	var n int
	if _, err := fmt.Sscan(v, &n); err != nil {
		return fmt.Errorf("TCPWM_COUNTERS %q: %w", v, err)
	}
	for _, c := range cfg.Counters {
		if int(c.Index) >= n {
			return fmt.Errorf("counter %d: block has %d counters: %w", c.Index, n, tcpwm.ErrBadParam)
		}
	}
	return nil
}

func (q *Query) Run(m *mcu.MCU) error {
	s, err := m.CounterState(q.Counter)
	if err != nil {
		return err
	}
	fmt.Printf("counter %d\n", q.Counter)
	for _, r := range []struct {
		name string
		v    uint32
	}{
		{"ctrl", s.Ctrl},
		{"status", s.Status},
		{"counter", s.Counter},
		{"cc", s.CC},
		{"cc_buff", s.CCBuff},
		{"period", s.Period},
		{"period_buff", s.PeriodBuff},
		{"tr_ctrl0", s.TrCtrl0},
		{"tr_ctrl1", s.TrCtrl1},
		{"tr_ctrl2", s.TrCtrl2},
		{"intr", s.Intr},
		{"intr_mask", s.IntrMask},
	} {
		fmt.Printf("  %-12s %#010x\n", r.name, r.v)
	}
	return nil
}

func (t *Trigger) Run(m *mcu.MCU) error {
	v, ok := m.Enumeration("tcpwm_cmd", t.Command)
	if !ok {
		return fmt.Errorf("firmware has no trigger %q", t.Command)
	}
	return m.Trigger(t.Counter, tcpwm.Command(v))
}

func (e *Enable) Run(m *mcu.MCU) error {
	return m.EnableCounter(e.Counter, !e.Off)
}

func (Sleep) Run(m *mcu.MCU) error {
	status, callbacks, err := m.DeepSleep()
	if err != nil {
		return err
	}
	fmt.Printf("deep sleep: %v (%d callbacks)\n", status, callbacks)
	return nil
}

func (d *Dict) Run(m *mcu.MCU) error {
	if d.Raw {
		fmt.Println(string(m.GetDictionaryRaw()))
		return nil
	}
	dict := m.GetDictionary()
	fmt.Printf("version %s\n", dict.Version)
	printSection("config", dict.Config)
	printIDs("commands", dict.Commands)
	printIDs("responses", dict.Responses)
	for name, values := range dict.Enumerations {
		fmt.Printf("enumeration %s:", name)
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return values[keys[i]] < values[keys[j]] })
		for _, k := range keys {
			fmt.Printf(" %s=%d", k, values[k])
		}
		fmt.Println()
	}
	return nil
}

func printSection(title string, kv map[string]string) {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %s = %s\n", k, kv[k])
	}
}

func printIDs(title string, ids map[string]int) {
	sigs := make([]string, 0, len(ids))
	for s := range ids {
		sigs = append(sigs, s)
	}
	sort.Slice(sigs, func(i, j int) bool { return ids[sigs[i]] < ids[sigs[j]] })
	fmt.Printf("%s:\n", title)
	for _, s := range sigs {
		fmt.Printf("  %3d %s\n", ids[s], strings.TrimSpace(s))
	}
}
