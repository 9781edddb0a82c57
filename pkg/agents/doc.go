// Package agents defines the Agent interface and the Base struct that
// concrete agent types embed to share Complete, CallTools and Tools.
//
// The react sub-package implements the ReAct (Reason + Act) loop on top of
// Base. The middleware sub-package wraps any Agent with panic recovery, a
// deadline and logging.
package agents
