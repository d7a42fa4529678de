package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDeserializationFailed - некорректная полезная нагрузка (конфиг, значение из хранилища).
	ErrDeserializationFailed = errors.New("deserialization failed")
	// ErrCorruptState - значение в хранилище состояния не разбирается. Ошибка сервера, не клиента.
	ErrCorruptState = fmt.Errorf("corrupt stored state: %w", ErrDeserializationFailed)
	// ErrSerializationFailed - не удалось закодировать значение для записи.
	ErrSerializationFailed = errors.New("serialization failed")
	// ErrStore - ошибка обращения к хранилищу состояния.
	ErrStore = errors.New("store error")
	// ErrContractNotFound - для метки нет контракта, оценка невозможна.
	ErrContractNotFound = errors.New("contract not found")
	// ErrConfig - отсутствует или некорректна числовая константа/порог конфигурации.
	ErrConfig = errors.New("invalid configuration")
	// ErrTypeConversion - числовое сужение не удалось.
	ErrTypeConversion = errors.New("type conversion failed")
	// ErrCurrentTime - системные часы вернули время до эпохи.
	ErrCurrentTime = errors.New("failed to get current time")

	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrKeyNotFound      = errors.New("key not found")
	ErrUnauthenticated  = errors.New("unauthenticated")
)
