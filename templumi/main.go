package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/templumi/pkg/bridge"
	"github.com/itohio/templumi/pkg/config"
	"github.com/itohio/templumi/pkg/logging"
	"github.com/itohio/templumi/pkg/monitor"
	"github.com/itohio/templumi/pkg/scope"
	"github.com/itohio/templumi/pkg/sensor"
	flags "github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
)

// forwardDrainTimeout bounds how long disconnect waits for queued readings to reach the broker.
const forwardDrainTimeout = 2 * time.Second

type options struct {
	Config   string `short:"c" long:"config" default:"config.yaml" description:"Configuration file path"`
	Port     string `short:"p" long:"port" description:"Serial port override (e.g. COM3 or /dev/ttyUSB0)"`
	Mock     bool   `long:"mock" description:"Use an in-process simulated board instead of the serial port"`
	MQTT     bool   `long:"mqtt" description:"Forward readings to the configured MQTT broker"`
	LogLevel string `long:"log-level" description:"Log level: debug, info, warn, error (overrides config)"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if opts.Port != "" {
		cfg.Serial.Port = opts.Port
	}
	if opts.MQTT {
		cfg.MQTT.Enabled = true
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	log, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	application := app.NewWithID("com.itohio.templumi")
	window := application.NewWindow("Temperature & Luminosity")
	window.Resize(fyne.NewSize(800, 600))
	window.CenterOnScreen()

	state := &appState{
		cfg:     cfg,
		log:     log,
		useMock: opts.Mock,
		window:  window,
		readout: newReadout(),
		history: scope.NewHistory(cfg.View.HistorySize),
	}

	state.temperature = widget.NewLabelWithStyle(placeholder, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	state.luminosity = widget.NewLabelWithStyle(placeholder, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	state.temperatureRange = widget.NewLabelWithStyle(placeholder, fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	state.luminosityRange = widget.NewLabelWithStyle(placeholder, fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	state.status = widget.NewLabel(state.readout.Status)

	readings := container.NewGridWithColumns(2,
		widget.NewLabelWithStyle("Temperature", fyne.TextAlignCenter, fyne.TextStyle{}),
		widget.NewLabelWithStyle("Luminosity", fyne.TextAlignCenter, fyne.TextStyle{}),
		state.temperature,
		state.luminosity,
		state.temperatureRange,
		state.luminosityRange,
	)

	state.scopes = []*scope.ScopeWidget{
		scope.New(cfg.View, sensor.Temperature),
		scope.New(cfg.View, sensor.Luminosity),
	}
	plots := container.NewGridWithRows(len(state.scopes))
	for _, s := range state.scopes {
		plots.Add(s)
	}

	window.SetContent(container.NewBorder(
		container.NewVBox(createToolbar(state), readings),
		state.status, nil, nil,
		plots,
	))
	window.SetOnClosed(func() {
		disconnect(state)
	})
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg     *config.Config
	log     zerolog.Logger
	useMock bool
	window  fyne.Window

	connectBtn  *widget.Button
	temperature *widget.Label
	luminosity  *widget.Label
	status      *widget.Label

	temperatureRange *widget.Label
	luminosityRange  *widget.Label

	device    monitor.Device
	publisher *bridge.Publisher
	consumer  chan struct{} // Closed when the readings goroutine exits
	readout   readout
	history   *scope.History
	scopes    []*scope.ScopeWidget
}

// createToolbar creates the toolbar with the Connect button.
func createToolbar(state *appState) fyne.CanvasObject {
	state.connectBtn = widget.NewButtonWithIcon("Connect", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	return container.NewHBox(state.connectBtn)
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		disconnect(state)
		state.connectBtn.SetText("Connect")
		state.connectBtn.SetIcon(theme.LoginIcon())
		state.readout.Status = "disconnected"
		state.status.SetText(state.readout.Status)
		return
	}

	var device monitor.Device
	if state.useMock {
		mockCfg := *state.cfg
		if mockCfg.Station.TimeScale <= 1 {
			mockCfg.Station.TimeScale = 10
		}
		device = monitor.NewMock(&mockCfg, state.log)
	} else {
		device = monitor.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, monitor.DefaultBufferSize, state.log)
	}

	if err := device.Connect(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		return
	}
	state.device = device

	if state.cfg.MQTT.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		publisher, err := bridge.Dial(ctx, state.cfg.MQTT, state.log)
		cancel()
		if err != nil {
			dialog.ShowError(err, state.window)
		} else {
			state.publisher = publisher
		}
	}

	state.connectBtn.SetText("Disconnect")
	state.connectBtn.SetIcon(theme.LogoutIcon())
	state.readout.Status = "connected"
	state.status.SetText(state.readout.Status)

	state.history.Reset()
	state.consumer = make(chan struct{})
	go consumeReadings(state, device.Readings(), state.publisher, state.consumer)
}

// consumeReadings updates the labels and plots for every reading and tees the
// stream to the broker when a publisher is set.
// Uses fyne.Do() to ensure thread-safe UI updates from goroutine.
func consumeReadings(state *appState, readings <-chan monitor.Reading, publisher *bridge.Publisher, done chan struct{}) {
	defer close(done)

	var forward chan monitor.Reading
	if publisher != nil {
		forward = make(chan monitor.Reading, monitor.DefaultBufferSize)
		ctx, cancel := context.WithCancel(context.Background())
		forwarded := make(chan struct{})
		go func() {
			defer close(forwarded)
			if err := publisher.Forward(ctx, forward); err != nil {
				state.log.Warn().Err(err).Msg("forwarding stopped")
			}
		}()
		defer func() {
			close(forward)
			select {
			case <-forwarded:
			case <-time.After(forwardDrainTimeout):
				cancel()
				<-forwarded
			}
			cancel()
		}()
	}

	for r := range readings {
		if forward != nil {
			select {
			case forward <- r:
			default:
				state.log.Warn().Stringer("channel", r.Channel).Msg("broker too slow, reading not forwarded")
			}
		}

		state.history.Add(r)
		fyne.Do(func() {
			for _, s := range state.scopes {
				s.Update(state.history)
			}
			if fault := state.readout.apply(r); fault {
				dialog.ShowInformation("Sensor board fault", "The board reported ERROR and stopped its report cycle.", state.window)
			}
			for _, ch := range sensor.Channels() {
				state.readout.summarize(ch, state.history.Stats(ch))
			}
			state.temperature.SetText(state.readout.Temperature)
			state.luminosity.SetText(state.readout.Luminosity)
			state.temperatureRange.SetText(state.readout.TemperatureRange)
			state.luminosityRange.SetText(state.readout.LuminosityRange)
			state.status.SetText(state.readout.Status)
		})
	}
}

// disconnect closes the device and the broker connection and waits for the
// readings goroutine to drain.
func disconnect(state *appState) {
	if state.device == nil {
		return
	}

	if err := state.device.Close(); err != nil {
		state.log.Error().Err(err).Msg("device closed with error")
	}
	if state.consumer != nil {
		<-state.consumer
		state.consumer = nil
	}
	if state.publisher != nil {
		state.publisher.Close()
		state.publisher = nil
	}
	state.device = nil
}
