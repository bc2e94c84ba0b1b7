// Package storage хранит загруженные изображения владельцев на диске и выдаёт их публичные адреса.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// SniffLength: сколько байт начала файла нужно для определения типа.
const SniffLength = 512

var (
	// ErrUnsupportedType возвращается, если содержимое не является поддерживаемым изображением.
	ErrUnsupportedType = errors.New("storage: поддерживаются только изображения jpeg, png, webp и gif")
	// ErrTooLarge возвращается при превышении лимита размера.
	ErrTooLarge = errors.New("storage: размер файла превышает лимит")
	// ErrEmpty возвращается для пустого файла.
	ErrEmpty = errors.New("storage: файл пустой")
)

var allowedImages = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Image: определённый по содержимому тип изображения.
type Image struct {
	MIME      string
	Extension string
}

// DetectImage определяет тип по магическим байтам. Расширение имени файла не учитывается.
func DetectImage(head []byte) (Image, error) {
	if len(head) == 0 {
		return Image{}, ErrEmpty
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return Image{}, ErrUnsupportedType
	}
	ext, ok := allowedImages[kind.MIME.Value]
	if !ok {
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedType, kind.MIME.Value)
	}
	return Image{MIME: kind.MIME.Value, Extension: ext}, nil
}

// StoredFile: результат сохранения.
type StoredFile struct {
	Path string
	URL  string
	Size int64
	Image
}

// ImageStorage сохраняет изображения в каталоги вида <root>/<owner-id>/.
type ImageStorage struct {
	rootPath       string
	publicURL      string
	maxUploadBytes int64
}

// NewImageStorage создаёт хранилище и корневой каталог.
func NewImageStorage(rootPath, publicURL string, maxUploadMB int64) (*ImageStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &ImageStorage{
		rootPath:       rootPath,
		publicURL:      strings.TrimRight(publicURL, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save проверяет тип содержимого и сохраняет файл как <owner-id>/<uuid>.<ext>.
func (s *ImageStorage) Save(ctx context.Context, ownerID uuid.UUID, r io.Reader) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head := make([]byte, SniffLength)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	head = head[:n]

	img, err := DetectImage(head)
	if err != nil {
		return nil, err
	}

	ownerDir := filepath.Join(s.rootPath, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог владельца: %w", err)
	}

	fileName := uuid.NewString() + "." + img.Extension
	targetPath := filepath.Join(ownerDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, ErrTooLarge
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	relative := path.Join(ownerID.String(), fileName)
	return &StoredFile{Path: relative, URL: s.PublicURL(relative), Size: written, Image: img}, nil
}

// PublicURL возвращает адрес, по которому файл отдаётся клиентам.
func (s *ImageStorage) PublicURL(relativePath string) string {
	return s.publicURL + "/" + strings.TrimLeft(relativePath, "/")
}

// Delete удаляет файл. Отсутствующий файл ошибкой не считается.
func (s *ImageStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.resolve(relativePath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// RemoveOwner удаляет все файлы владельца.
func (s *ImageStorage) RemoveOwner(ctx context.Context, ownerID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.rootPath, ownerID.String())); err != nil {
		return fmt.Errorf("storage: не удалось удалить каталог владельца: %w", err)
	}
	return nil
}

// resolve не даёт выйти за пределы корня через "..".
func (s *ImageStorage) resolve(relativePath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relativePath))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("storage: недопустимый путь %q", relativePath)
	}
	return filepath.Join(s.rootPath, clean), nil
}
