// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

// Package vrc materializes remote JSON payloads into validated domain
// objects and tracks the current user's friends.
//
// Every domain type declares a Shape describing which keys a payload must
// carry, which are typed sub-objects, and which are reserved. Binding a
// payload against a shape is all-or-nothing: a payload that does not match
// produces a SchemaViolation and no partial object, which surfaces server
// schema drift at the edge instead of deep inside application code.
//
// AccountSession is the REST client the domain objects call back into for
// follow-up fetches. Roster is the partitioned friends view maintained by
// the presence channel in package pipeline.
package vrc
