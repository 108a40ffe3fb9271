package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Имена компонентов, для которых заведены логгеры
const (
	ComponentMine     = "mine"
	ComponentStation  = "station"
	ComponentEconomy  = "economy"
	ComponentStorage  = "storage"
	ComponentAPI      = "api"
	ComponentGame     = "game"
	ComponentHost     = "host"
	ComponentEventBus = "eventbus"
)

// LoggerManager хранит логгеры компонентов игры.
// Без EnableFiles компоненты пишут в тот же поток, что и логгер по умолчанию,
// и наследуют его консольный уровень на момент создания.
type LoggerManager struct {
	mu        sync.RWMutex
	loggers   map[string]*Logger
	fileMode  bool
	overrides map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers:   make(map[string]*Logger),
		overrides: make(map[string]LogLevel),
	}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

// EnableFiles включает запись логов новых компонентов в отдельные файлы
func (lm *LoggerManager) EnableFiles(enabled bool) {
	lm.mu.Lock()
	lm.fileMode = enabled
	lm.mu.Unlock()
}

// Override задаёт консольный уровень компонента. Применяется сразу,
// если логгер уже создан, иначе при первом обращении.
func (lm *LoggerManager) Override(component string, level LogLevel) {
	lm.mu.Lock()
	lm.overrides[component] = level
	logger := lm.loggers[component]
	lm.mu.Unlock()

	if logger != nil {
		logger.mu.Lock()
		logger.minConsoleLevel = level
		logger.mu.Unlock()
	}
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := lm.create(component)
	if err != nil {
		return nil, err
	}
	if level, ok := lm.overrides[component]; ok {
		logger.minConsoleLevel = level
	}
	lm.loggers[component] = logger
	return logger, nil
}

// create вызывается под lm.mu
func (lm *LoggerManager) create(component string) (*Logger, error) {
	if !lm.fileMode {
		return NewWriterLogger(component, defaultLogger.consoleLogger.Writer(), defaultConsoleLevel()), nil
	}
	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер компонента %s: %w", component, err)
	}
	logger.minConsoleLevel = defaultConsoleLevel()
	return logger, nil
}

func defaultConsoleLevel() LogLevel {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.minConsoleLevel
}

// MustGetLogger возвращает логгер компонента; если файл создать не удалось,
// компонент пишет только в консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		return NewWriterLogger(component, defaultLogger.consoleLogger.Writer(), INFO)
	}
	return logger
}

// CloseAll закрывает файлы всех компонентов и забывает их логгеры
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("закрытие логгера %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// Components возвращает отсортированные имена созданных логгеров
func (lm *LoggerManager) Components() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// GetComponentLogger возвращает логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetMineLogger() *Logger     { return GetComponentLogger(ComponentMine) }
func GetStationLogger() *Logger  { return GetComponentLogger(ComponentStation) }
func GetEconomyLogger() *Logger  { return GetComponentLogger(ComponentEconomy) }
func GetStorageLogger() *Logger  { return GetComponentLogger(ComponentStorage) }
func GetAPILogger() *Logger      { return GetComponentLogger(ComponentAPI) }
func GetGameLogger() *Logger     { return GetComponentLogger(ComponentGame) }
func GetHostLogger() *Logger     { return GetComponentLogger(ComponentHost) }
func GetEventBusLogger() *Logger { return GetComponentLogger(ComponentEventBus) }
