package qa

import "go.uber.org/zap"

// attempt runs one context source and degrades every failure, error or
// panic, to an empty block. Failure isolation for the whole pipeline lives
// here instead of being repeated at each call site.
func attempt(logger *zap.Logger, source string, fn func() (string, error)) (result string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("context source panicked", zap.String("source", source), zap.Any("panic", r))
			result = ""
		}
	}()

	text, err := fn()
	if err != nil {
		logger.Warn("context source failed", zap.String("source", source), zap.Error(err))
		return ""
	}
	return text
}
