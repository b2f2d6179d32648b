package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Logger is a subsystem logger routed through a shared Backend.
type Logger struct {
	lvl       uint32 // Level. Used atomically.
	tag       string
	b         *Backend
	writeChan chan<- logEntry
}

type logEntry struct {
	log   []byte
	level Level
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.lvl))
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(logLevel Level) {
	atomic.StoreUint32(&l.lvl, uint32(logLevel))
}

func (l *Logger) shouldLog(logLevel Level) bool {
	// Entries are dropped when the backend goroutine isn't consuming them,
	// otherwise an unbuffered writeChan would block the caller forever.
	return l.b.IsRunning() && logLevel >= l.Level()
}

func (l *Logger) print(logLevel Level, args ...interface{}) {
	if !l.shouldLog(logLevel) {
		return
	}
	l.writeChan <- logEntry{formatEntry(logLevel, l.tag, fmt.Sprint(args...)), logLevel}
}

func (l *Logger) printf(logLevel Level, format string, args ...interface{}) {
	if !l.shouldLog(logLevel) {
		return
	}
	l.writeChan <- logEntry{formatEntry(logLevel, l.tag, fmt.Sprintf(format, args...)), logLevel}
}

// formatEntry renders a single log line: timestamp, level tag, subsystem
// tag and the message itself.
func formatEntry(logLevel Level, tag string, message string) []byte {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return []byte(fmt.Sprintf("%s [%s] %s: %s\n", timestamp, logLevel, tag, message))
}

// Trace formats a message using the default formats for its operands, and
// writes it at the trace level.
func (l *Logger) Trace(args ...interface{}) {
	l.print(LevelTrace, args...)
}

// Tracef formats a message according to a format specifier and writes it at
// the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.printf(LevelTrace, format, args...)
}

// Debug writes a message at the debug level.
func (l *Logger) Debug(args ...interface{}) {
	l.print(LevelDebug, args...)
}

// Debugf writes a formatted message at the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.printf(LevelDebug, format, args...)
}

// Info writes a message at the info level.
func (l *Logger) Info(args ...interface{}) {
	l.print(LevelInfo, args...)
}

// Infof writes a formatted message at the info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.printf(LevelInfo, format, args...)
}

// Warn writes a message at the warn level.
func (l *Logger) Warn(args ...interface{}) {
	l.print(LevelWarn, args...)
}

// Warnf writes a formatted message at the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.printf(LevelWarn, format, args...)
}

// Error writes a message at the error level.
func (l *Logger) Error(args ...interface{}) {
	l.print(LevelError, args...)
}

// Errorf writes a formatted message at the error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.printf(LevelError, format, args...)
}

// Critical writes a message at the critical level.
func (l *Logger) Critical(args ...interface{}) {
	l.print(LevelCritical, args...)
}

// Criticalf writes a formatted message at the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.printf(LevelCritical, format, args...)
}

// BackendLog is the logging backend used to create all subsystem loggers.
var BackendLog = NewBackend()

// SubsystemTags is an enum of all subsystem tags.
var SubsystemTags = struct {
	UBXD,
	CNFG,
	DBAC,
	LVDB,
	MDAG string
}{
	UBXD: "UBXD",
	CNFG: "CNFG",
	DBAC: "DBAC",
	LVDB: "LVDB",
	MDAG: "MDAG",
}

var (
	subsystemLoggersMutex sync.Mutex
	subsystemLoggers      = make(map[string]*Logger)
)

func init() {
	for _, tag := range []string{
		SubsystemTags.UBXD,
		SubsystemTags.CNFG,
		SubsystemTags.DBAC,
		SubsystemTags.LVDB,
		SubsystemTags.MDAG,
	} {
		subsystemLoggers[tag] = BackendLog.Logger(tag)
	}
}

// Get returns the logger of a specific subsystem, creating it on first use.
func Get(tag string) (*Logger, error) {
	if tag == "" {
		return nil, errors.New("the subsystem tag cannot be empty")
	}
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()

	log, ok := subsystemLoggers[tag]
	if !ok {
		log = BackendLog.Logger(tag)
		subsystemLoggers[tag] = log
	}
	return log, nil
}

// SetLogLevels sets the logging level for all subsystem loggers.
func SetLogLevels(logLevel Level) {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()

	for _, log := range subsystemLoggers {
		log.SetLevel(logLevel)
	}
}

// SetLogLevel sets the logging level of the given subsystem. It returns
// false if the subsystem doesn't exist.
func SetLogLevel(tag string, logLevel Level) bool {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()

	log, ok := subsystemLoggers[tag]
	if !ok {
		return false
	}
	log.SetLevel(logLevel)
	return true
}

// ParseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly. An appropriate error is returned if anything is
// invalid. The debug level may either be a single level applied to every
// subsystem, or a comma-separated list of subsystem=level pairs.
func ParseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		logLevel, ok := LevelFromString(debugLevel)
		if !ok {
			return errors.Errorf("the specified debug level [%s] is invalid", debugLevel)
		}
		SetLogLevels(logLevel)
		return nil
	}

	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			return errors.Errorf("the specified debug level contains an "+
				"invalid subsystem/level pair [%s]", logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		if len(fields) != 2 {
			return errors.Errorf("the specified debug level has an invalid format [%s]", logLevelPair)
		}
		tag, levelStr := fields[0], fields[1]

		logLevel, ok := LevelFromString(levelStr)
		if !ok {
			return errors.Errorf("the specified debug level [%s] is invalid", levelStr)
		}
		if !SetLogLevel(tag, logLevel) {
			return errors.Errorf("the specified subsystem [%s] is invalid", tag)
		}
	}

	return nil
}

// InitLog attaches the log file and error log file to the backend log and
// starts it. Failures here are fatal since no subsystem can report anything
// without a running backend.
func InitLog(logFile, errLogFile string) {
	err := BackendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", logFile, LevelTrace, err)
		os.Exit(1)
	}
	err = BackendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", errLogFile, LevelWarn, err)
		os.Exit(1)
	}
	err = BackendLog.AddLogWriter(os.Stdout, LevelDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stdout to the logger: %s", err)
		os.Exit(1)
	}
	err = BackendLog.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s ", err)
		os.Exit(1)
	}
}
