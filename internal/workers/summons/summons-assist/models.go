// internal/workers/summons/summons-assist/models.go
package summonsassist

import "summons-workers/internal/models"

type Input = models.AssistRequest

type Output = models.AssistPayload
