// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

import "fmt"

// Field binders used by the shape declarations. Each converts one raw JSON
// value into its typed form, failing rather than guessing on a wrong kind.

func bindLocation(_ *AccountSession, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, &ParseError{Raw: fmt.Sprint(raw), cause: fmt.Errorf("expected location string, got %T", raw)}
	}
	return ParseLocation(s)
}

func bindFeature(ses *AccountSession, raw any) (any, error) {
	m, err := asObject("Feature", raw)
	if err != nil {
		return nil, err
	}
	return NewFeature(ses, m)
}

func bindUnityPackage(ses *AccountSession, raw any) (any, error) {
	m, err := asObject("UnityPackage", raw)
	if err != nil {
		return nil, err
	}
	return NewUnityPackage(ses, m)
}

func bindNotificationDetails(ses *AccountSession, raw any) (any, error) {
	m, err := asObject("NotificationDetails", raw)
	if err != nil {
		return nil, err
	}
	return NewNotificationDetails(ses, m)
}

func asObject(object string, raw any) (map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &SchemaViolation{
			Object: object,
			Reason: MissingOrUnexpectedField,
			cause:  fmt.Errorf("expected object, got %T", raw),
		}
	}
	return m, nil
}
