// Package automation runs scripted interactions against an emulated panel.
//
// A sequence is written as ordered tokens, either as CLI arguments or as a
// URL query split on '&':
//
//	connect
//	touch=100,150
//	touchbutton=12
//	touchtext=Settings
//	whiletext!=Ready doaction=touchtext=Next
//	checkbutton==5 thenaction=touchbutton=5 elseaction=none
//	disconnect
//
// A while step repeats its action as long as the condition holds, up to
// Runner.MaxLoops iterations. A check step runs its then or else action
// once. The first failing step aborts the sequence and is reported in the
// Result.
package automation
