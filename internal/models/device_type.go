package models

import (
	"fmt"
	"strings"
)

// DeviceType разделяет карту: номера станций и имена bay уникальны в его пределах.
type DeviceType string

const (
	DeviceMouse    DeviceType = "mouse"
	DeviceKeyboard DeviceType = "keyboard"
	DeviceHeadset  DeviceType = "headset"
)

var DeviceTypes = []DeviceType{DeviceMouse, DeviceKeyboard, DeviceHeadset}

func (t DeviceType) Valid() bool {
	switch t {
	case DeviceMouse, DeviceKeyboard, DeviceHeadset:
		return true
	}
	return false
}

// ParseDeviceType приводит строку к DeviceType или возвращает ErrInvalid.
func ParseDeviceType(s string) (DeviceType, error) {
	t := DeviceType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("device type %q: %w", s, ErrInvalid)
	}
	return t, nil
}

// NormalizeBayName: имена bay храним в верхнем регистре.
func NormalizeBayName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
