// Package framefeed delivers committed frames to consumers, either in process
// through a bounded Queue sink or across processes by watching the frames
// directory with fsnotify.
package framefeed
