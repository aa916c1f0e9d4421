package orchestrator

import (
	"github.com/nerrad567/hearth-core/internal/device"
)

// ExecuteAction validates an action and dispatches it to the owning plugin.
//
// The action's params are verified against the ActionType's schema with
// defaults materialised. The plugin answers with a terminal result or Async;
// async completions surface later as ActionExecutionFinished, forwarded
// unchanged. The dispatcher does not retry.
func (o *Orchestrator) ExecuteAction(action device.Action) device.Error {
	o.mu.Lock()
	defer o.mu.Unlock()

	dev, ok := o.devices[action.DeviceID]
	if !ok {
		return device.NewError(device.ErrorDeviceNotFound, "device %s not found", action.DeviceID)
	}

	class := o.host.FindDeviceClass(dev.ClassID())
	if !class.Valid() {
		return device.NewError(device.ErrorDeviceClassNotFound, "device class %s not found", dev.ClassID())
	}

	actionType, ok := class.ActionType(action.ActionTypeID)
	if !ok {
		return device.NewError(device.ErrorActionTypeNotFound,
			"device class %q has no action type %s", class.Name, action.ActionTypeID)
	}

	effective, verr := device.VerifyParams(actionType.ParamTypes, action.Params, true)
	if !verr.OK() {
		return verr
	}
	action.Params = effective

	p := o.host.Plugin(dev.PluginID())
	if p == nil {
		return device.NewError(device.ErrorPluginNotFound, "plugin %s not loaded", dev.PluginID())
	}

	result := p.ExecuteAction(dev, action)
	if result.IsAsync() {
		o.pendingActions[action.ID] = struct{}{}
	}
	return result
}

// handleActionFinished consumes the continuation of an async action and
// forwards the plugin's result unchanged. Unmatched completions are logged
// and discarded. Runs on the event path with the lock held.
func (o *Orchestrator) handleActionFinished(actionID device.ActionID, result device.Error) {
	if _, ok := o.pendingActions[actionID]; !ok {
		o.logger.Warn("unmatched action completion, ignoring", "action_id", actionID)
		return
	}
	if result.IsAsync() {
		o.logger.Warn("plugin reported action finished with status async, dropping", "action_id", actionID)
		return
	}
	delete(o.pendingActions, actionID)

	o.notify(func(obs Observer) { obs.ActionExecutionFinished(actionID, result) })
}
