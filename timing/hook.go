package timing

import "github.com/sarchlab/ecucore/instrumentation/hooking"

// HookPosBeforeEvent fires right before an event is handled.
var HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent fires right after an event is handled.
var HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}
