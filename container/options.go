package container

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/qcf/block"
	"github.com/arloliu/qcf/encoding"
	"github.com/arloliu/qcf/endian"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/internal/logger"
	"github.com/arloliu/qcf/internal/options"
)

const (
	// DefaultBlockSize is the number of events buffered before a block is flushed.
	DefaultBlockSize = 1024
	// DefaultBlockByteThreshold forces a flush once the buffered codes reach this many raw bytes.
	DefaultBlockByteThreshold = 64 << 20
	// MaxBlockSize is the largest accepted block size.
	MaxBlockSize = 1 << 24
	// MaxBlockByteThreshold is the raw size of the largest block a reader accepts.
	MaxBlockByteThreshold = block.MaxBlockCodes * 8

	// MaxCommentLength is the longest comment a reader loads back.
	MaxCommentLength = encoding.MaxStringLength
	// MaxCommentBytes bounds the total size of the comments of one file.
	MaxCommentBytes = 1 << 30

	DefaultEncoding    = format.TypeDelta       // DefaultEncoding is the column encoding of new files.
	DefaultCompression = format.CompressionZstd // DefaultCompression is the column compression of new files.
)

// SessionConfig holds the settings of a Session. Build it with SessionOptions.
type SessionConfig struct {
	blockSize     int
	byteThreshold int
	blockCodes    int
	encoding      format.EncodingType
	compression   format.CompressionType
	engine        endian.EndianEngine
	logger        *slog.Logger
	observer      Observer
	sync          bool
	recovery      bool
}

func newSessionConfig() *SessionConfig {
	return &SessionConfig{
		blockSize:     DefaultBlockSize,
		byteThreshold: DefaultBlockByteThreshold,
		blockCodes:    block.MaxBlockCodes,
		encoding:      DefaultEncoding,
		compression:   DefaultCompression,
		engine:        endian.GetLittleEndianEngine(),
		logger:        logger.Discard(),
		observer:      nopObserver{},
		recovery:      true,
	}
}

// SessionOption configures a Session.
type SessionOption = options.Option[*SessionConfig]

// WithBlockSize sets the maximum number of events per block of a new file.
// Append sessions keep the block size recorded in the file.
func WithBlockSize(n int) SessionOption {
	return options.New(func(c *SessionConfig) error {
		if n <= 0 || n > MaxBlockSize {
			return fmt.Errorf("%w: block size %d not in [1, %d]", errs.ErrInvalidOption, n, MaxBlockSize)
		}
		c.blockSize = n

		return nil
	})
}

// WithBlockByteThreshold flushes a block early once its buffered codes take
// n raw bytes (eight per code).
func WithBlockByteThreshold(n int) SessionOption {
	return options.New(func(c *SessionConfig) error {
		if n <= 0 || n > MaxBlockByteThreshold {
			return fmt.Errorf("%w: block byte threshold %d not in [1, %d]", errs.ErrInvalidOption, n, MaxBlockByteThreshold)
		}
		c.byteThreshold = n

		return nil
	})
}

// WithEncoding sets the column encoding of a new file.
func WithEncoding(enc format.EncodingType) SessionOption {
	return options.New(func(c *SessionConfig) error {
		if !enc.Valid() {
			return fmt.Errorf("%w: encoding %d", errs.ErrInvalidOption, enc)
		}
		c.encoding = enc

		return nil
	})
}

// WithCompression sets the column compression of a new file.
func WithCompression(comp format.CompressionType) SessionOption {
	return options.New(func(c *SessionConfig) error {
		if !comp.Valid() {
			return fmt.Errorf("%w: compression %d", errs.ErrInvalidOption, comp)
		}
		c.compression = comp

		return nil
	})
}

// WithLittleEndian writes a new file in little-endian byte order. It is the default.
func WithLittleEndian() SessionOption {
	return options.NoError(func(c *SessionConfig) {
		c.engine = endian.GetLittleEndianEngine()
	})
}

// WithBigEndian writes a new file in big-endian byte order.
func WithBigEndian() SessionOption {
	return options.NoError(func(c *SessionConfig) {
		c.engine = endian.GetBigEndianEngine()
	})
}

// WithLogger sets the logger for block and recovery events. Sessions are
// silent by default.
func WithLogger(l *slog.Logger) SessionOption {
	return options.NoError(func(c *SessionConfig) {
		if l == nil {
			l = logger.Discard()
		}
		c.logger = l
	})
}

// WithObserver registers an observer for session activity, such as the
// prometheus observer of package metrics.
func WithObserver(o Observer) SessionOption {
	return options.NoError(func(c *SessionConfig) {
		if o == nil {
			o = nopObserver{}
		}
		c.observer = o
	})
}

// WithSync makes the session fsync the file after every block and at close.
func WithSync(enabled bool) SessionOption {
	return options.NoError(func(c *SessionConfig) {
		c.sync = enabled
	})
}

// WithRecovery controls whether files without a valid trailer are read by
// scanning their block frames. Enabled by default; when disabled such files
// fail with errs.ErrFormat.
func WithRecovery(enabled bool) SessionOption {
	return options.NoError(func(c *SessionConfig) {
		c.recovery = enabled
	})
}
