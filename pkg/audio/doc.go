// Package audio models the host's audio sessions and routes volume changes
// between the fader device and the platform mixer.
//
// The platform audio API (Windows WASAPI, PulseAudio, CoreAudio) is consumed
// behind the API interface: enumerate sessions, get/set volume, subscribe to
// lifecycle events. Router owns the session table as its single writer; all
// other components read snapshots.
//
// Router also implements echo suppression: after the router itself sets a
// session's volume on behalf of a fader, the platform reports that change
// back as a VolumeChanged event. Within a short window such events are
// recognized as our own writes and are not reflected back to the device,
// which would otherwise oscillate.
package audio
