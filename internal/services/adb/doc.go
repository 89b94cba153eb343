// Package adb mediates access to the Android Debug Bridge CLI used to reach
// the headset.
//
// Every operation is a single adb invocation. Operations that target the
// connected headset take its host:port serial and pass it through `-s`; an
// empty serial lets adb pick the only attached device, which is how the
// initial USB-side queries run before the network session exists.
//
// Prefer this package over ad-hoc exec.Command usage so output capture and
// error classification stay consistent.
package adb
