package gpio

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Backend kinds accepted by New.
const (
	KindAuto = "auto"
	KindCdev = "cdev"
	KindMock = "mock"
)

// New creates a backend of the requested kind.
// "auto" tries the character device first and falls back to the in-memory mock.
func New(kind, chip string, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(kind) {
	case KindMock:
		logger.Info("Using mock GPIO backend")
		return NewMock(logger), nil

	case KindCdev:
		b, err := NewCdev(chip)
		if err != nil {
			return nil, err
		}
		logger.Info("Using GPIO character device", "chip", chip)
		return b, nil

	case KindAuto, "":
		boardModel := detectBoard()
		logger.Info("Detecting board for GPIO control", "board_model", boardModel)

		b, err := NewCdev(chip)
		if err != nil {
			logger.Warn("GPIO character device unavailable, using mock backend",
				"chip", chip,
				"board_model", boardModel,
				"error", err)
			return NewMock(logger), nil
		}
		logger.Info("Using GPIO character device", "chip", chip, "board_model", boardModel)
		return b, nil

	default:
		return nil, fmt.Errorf("unknown gpio backend %q (want auto, cdev or mock)", kind)
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
